package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/app/repository"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/database"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/usercontext"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a user together with its free-tier billing account
// and returns a freshly issued API key. The raw key is only ever shown here.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if len(req.Password) < 8 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Password must be at least 8 characters")
	}

	db := database.GetDB()
	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(req.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("register: email lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	user, err := models.RegisterUser(db, req.Username, req.Email, req.Password)
	if err != nil {
		log.Errorf("register: could not create user %q: %v", req.Email, err)
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Could not create account")
	}

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		log.Errorf("register: could not issue api key for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}
	if err := repo.Update(user); err != nil {
		log.Errorf("register: could not store api key hash for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Name,
		"email":    user.Email,
		"api_key":  apiKey,
		"plan":     models.PlanFree,
	})
}

// HandleGetAccount returns the authenticated user's account and billing state.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	response := fiber.Map{
		"id":         user.ID,
		"username":   user.Name,
		"email":      user.Email,
		"status":     user.Status,
		"created_at": user.CreatedAt,
	}
	if account, err := repo.GetBillingAccount(user.ID); err == nil {
		response["billing"] = fiber.Map{
			"plan":                 account.PlanType,
			"status":               account.PlanStatus,
			"has_subscription":     account.HasSubscription(),
			"current_period_start": account.CurrentPeriodStart,
			"current_period_end":   account.CurrentPeriodEnd,
		}
	} else {
		log.Warnf("account: billing account missing for user %d: %v", user.ID, err)
	}

	return c.JSON(response)
}

// HandleRotateAPIKey invalidates the caller's API key and issues a new one.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		log.Errorf("rotate: could not issue api key for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Key rotation failed")
	}
	if err := repo.Update(user); err != nil {
		log.Errorf("rotate: could not store api key hash for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Key rotation failed")
	}

	return c.JSON(fiber.Map{"api_key": apiKey})
}
