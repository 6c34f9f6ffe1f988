package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/app/repository"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/entitlements"
)

type testimonialSubmitRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	AuthorRole  string `json:"author_role"`
	Body        string `json:"body"`
	Rating      int    `json:"rating"`
	VideoURL    string `json:"video_url"`
}

// HandleSubmitTestimonial accepts a public widget submission. The route is
// keyed by the project's widget key, not its numeric id, and requires no
// authentication. New testimonials always start pending.
func HandleSubmitTestimonial(c *fiber.Ctx) error {
	widgetKey := strings.TrimSpace(c.Params("widgetKey"))
	project, err := repository.GetGlobalFactory().GetProjectRepository().GetByWidgetKey(widgetKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Unknown widget key")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load project")
	}

	var req testimonialSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}

	// Video submissions are a paid feature of the project owner's plan. The
	// widget is public, so an out-of-plan video URL is dropped rather than
	// erroring the submitter.
	if req.VideoURL != "" {
		plan := entitlements.PlanFree
		if account, err := repository.GetGlobalFactory().GetUserRepository().GetBillingAccount(project.UserID); err == nil {
			plan = entitlements.Normalize(account.PlanType, account.PlanStatus)
		}
		if !entitlements.CanCollectVideo(plan) {
			req.VideoURL = ""
		}
	}

	testimonial := &models.Testimonial{
		ProjectID:   project.ID,
		AuthorName:  strings.TrimSpace(req.AuthorName),
		AuthorEmail: strings.TrimSpace(strings.ToLower(req.AuthorEmail)),
		AuthorRole:  strings.TrimSpace(req.AuthorRole),
		Body:        strings.TrimSpace(req.Body),
		Rating:      req.Rating,
		VideoURL:    strings.TrimSpace(req.VideoURL),
		Status:      models.TestimonialStatusPending,
	}
	if err := testimonial.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	}

	if err := repository.GetGlobalFactory().GetTestimonialRepository().Create(testimonial); err != nil {
		log.Errorf("testimonial submit failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store testimonial")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     testimonial.ID,
		"status": testimonial.Status,
	})
}

// HandleListTestimonials lists a project's testimonials, optionally filtered
// by status.
func HandleListTestimonials(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	status := strings.TrimSpace(c.Query("status"))
	switch status {
	case "", models.TestimonialStatusPending, models.TestimonialStatusApproved, models.TestimonialStatusRejected:
	default:
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Unknown status filter")
	}

	offset, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetTestimonialRepository()
	testimonials, err := repo.ListByProject(project.ID, status, offset, limit)
	if err != nil {
		log.Errorf("testimonial list failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load testimonials")
	}
	total, err := repo.CountByProject(project.ID, status)
	if err != nil {
		log.Errorf("testimonial count failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load testimonials")
	}

	return c.JSON(fiber.Map{
		"testimonials": testimonials,
		"total":        total,
		"offset":       offset,
		"limit":        limit,
	})
}

type testimonialModerateRequest struct {
	Status string `json:"status"`
}

// HandleModerateTestimonial approves or rejects a pending testimonial.
func HandleModerateTestimonial(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	var req testimonialModerateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}
	status := strings.TrimSpace(req.Status)
	if status != models.TestimonialStatusApproved && status != models.TestimonialStatusRejected {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Status must be approved or rejected")
	}

	repo := repository.GetGlobalFactory().GetTestimonialRepository()
	testimonial, err := repo.GetByID(paramID(c, "tid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Testimonial not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load testimonial")
	}
	if testimonial.ProjectID != project.ID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Testimonial not found")
	}

	if err := repo.UpdateStatus(testimonial.ID, status); err != nil {
		log.Errorf("testimonial moderation failed for id %d: %v", testimonial.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update testimonial")
	}

	return c.JSON(fiber.Map{"id": testimonial.ID, "status": status})
}

// HandleDeleteTestimonial removes a testimonial from an owned project.
func HandleDeleteTestimonial(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	repo := repository.GetGlobalFactory().GetTestimonialRepository()
	testimonial, err := repo.GetByID(paramID(c, "tid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Testimonial not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load testimonial")
	}
	if testimonial.ProjectID != project.ID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Testimonial not found")
	}

	if err := repo.Delete(testimonial.ID); err != nil {
		log.Errorf("testimonial delete failed for id %d: %v", testimonial.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete testimonial")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
