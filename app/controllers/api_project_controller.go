package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/app/repository"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/entitlements"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/usercontext"
)

type projectRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	BrandColor   string `json:"brand_color"`
	WebsiteURL   string `json:"website_url"`
	StatusPageOn *bool  `json:"status_page_on"`
}

// HandleCreateProject creates a testimonial collection space for the caller.
func HandleCreateProject(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}

	plan := entitlements.Normalize(userCtx.Plan, userCtx.PlanStatus)
	if max := entitlements.MaxProjects(plan); max > 0 {
		count, err := repository.GetGlobalFactory().GetProjectRepository().CountByUserID(userCtx.UserID)
		if err != nil {
			log.Errorf("project count failed for user %d: %v", userCtx.UserID, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create project")
		}
		if count >= max {
			return jsonError(c, fiber.StatusForbidden, "plan_limit", "Project limit reached for the current plan")
		}
	}
	if req.StatusPageOn != nil && *req.StatusPageOn && !entitlements.CanUseStatusPage(plan) {
		return jsonError(c, fiber.StatusForbidden, "plan_limit", "Status pages require a StatusPage or Bundle plan")
	}

	project := &models.Project{
		UserID:     userCtx.UserID,
		Name:       strings.TrimSpace(req.Name),
		Slug:       strings.TrimSpace(req.Slug),
		WebsiteURL: strings.TrimSpace(req.WebsiteURL),
	}
	if req.BrandColor != "" {
		project.BrandColor = req.BrandColor
	}
	if req.StatusPageOn != nil {
		project.StatusPageOn = *req.StatusPageOn
	}
	if err := project.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	}

	if err := repository.GetGlobalFactory().GetProjectRepository().Create(project); err != nil {
		log.Errorf("project create failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create project")
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

// HandleListProjects returns the caller's projects.
func HandleListProjects(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	projects, err := repository.GetGlobalFactory().GetProjectRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("project list failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load projects")
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// HandleGetProject returns one owned project.
func HandleGetProject(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(project)
}

// HandleUpdateProject updates mutable project settings.
func HandleUpdateProject(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		project.Name = name
	}
	if req.Slug != "" {
		project.Slug = strings.TrimSpace(req.Slug)
	}
	if req.BrandColor != "" {
		project.BrandColor = req.BrandColor
	}
	if req.WebsiteURL != "" {
		project.WebsiteURL = strings.TrimSpace(req.WebsiteURL)
	}
	if req.StatusPageOn != nil {
		if *req.StatusPageOn {
			userCtx := usercontext.GetUserContext(c)
			plan := entitlements.Normalize(userCtx.Plan, userCtx.PlanStatus)
			if !entitlements.CanUseStatusPage(plan) {
				return jsonError(c, fiber.StatusForbidden, "plan_limit", "Status pages require a StatusPage or Bundle plan")
			}
		}
		project.StatusPageOn = *req.StatusPageOn
	}
	if err := project.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	}

	if err := repository.GetGlobalFactory().GetProjectRepository().Update(project); err != nil {
		log.Errorf("project update failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update project")
	}
	return c.JSON(project)
}

// HandleDeleteProject soft-deletes an owned project.
func HandleDeleteProject(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	if err := repository.GetGlobalFactory().GetProjectRepository().Delete(project.ID); err != nil {
		log.Errorf("project delete failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete project")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
