package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/app/repository"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/usercontext"
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// paramID parses a numeric route parameter; 0 means invalid.
func paramID(c *fiber.Ctx, name string) uint {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// pagination reads offset/limit query params with sane bounds.
func pagination(c *fiber.Ctx) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

// requireOwnedProject loads a project and verifies the authenticated caller
// owns it. Foreign projects return 404 rather than 403 so project ids are not
// probeable.
func requireOwnedProject(c *fiber.Ctx, projectID uint) (*models.Project, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	project, err := repository.GetGlobalFactory().GetProjectRepository().GetByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Project not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load project")
	}
	if project.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Project not found")
	}
	return project, nil
}
