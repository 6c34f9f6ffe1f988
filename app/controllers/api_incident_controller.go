package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/app/repository"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/database"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/notify"
)

type incidentRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HandleCreateIncident opens a status-page incident and fans out one pending
// notification per subscriber. Delivery happens asynchronously through the
// job queue, so a mail outage never blocks the API.
func HandleCreateIncident(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	var req incidentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Title is required")
	}

	incident := &models.Incident{
		ProjectID: project.ID,
		Title:     title,
		Message:   strings.TrimSpace(req.Message),
		Status:    models.IncidentStatusInvestigating,
	}
	if err := repository.GetGlobalFactory().GetIncidentRepository().Create(incident); err != nil {
		log.Errorf("incident create failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create incident")
	}

	fanned, err := notify.FanOutIncident(database.GetDB(), incident, models.NotificationTypeIncidentCreated)
	if err != nil {
		log.Errorf("incident fan-out failed for incident %d: %v", incident.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"incident":              incident,
		"notifications_created": fanned,
	})
}

// HandleUpdateIncident updates an incident's status or message. Moving to
// resolved stamps ResolvedAt; every update fans out subscriber notifications.
func HandleUpdateIncident(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	repo := repository.GetGlobalFactory().GetIncidentRepository()
	incident, err := repo.GetByID(paramID(c, "iid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Incident not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load incident")
	}
	if incident.ProjectID != project.ID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Incident not found")
	}

	var req incidentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}

	notificationType := models.NotificationTypeIncidentUpdated
	if req.Status != "" {
		switch req.Status {
		case models.IncidentStatusInvestigating, models.IncidentStatusMonitoring:
			incident.Status = req.Status
		case models.IncidentStatusResolved:
			incident.Status = models.IncidentStatusResolved
			now := time.Now()
			incident.ResolvedAt = &now
			notificationType = models.NotificationTypeIncidentResolved
		default:
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Unknown incident status")
		}
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		incident.Title = title
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		incident.Message = msg
	}

	if err := repo.Update(incident); err != nil {
		log.Errorf("incident update failed for incident %d: %v", incident.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update incident")
	}

	fanned, err := notify.FanOutIncident(database.GetDB(), incident, notificationType)
	if err != nil {
		log.Errorf("incident fan-out failed for incident %d: %v", incident.ID, err)
	}

	return c.JSON(fiber.Map{
		"incident":              incident,
		"notifications_created": fanned,
	})
}

// HandleListIncidents lists a project's incidents.
func HandleListIncidents(c *fiber.Ctx) error {
	project, err := requireOwnedProject(c, paramID(c, "id"))
	if err != nil {
		return err
	}

	offset, limit := pagination(c)
	incidents, err := repository.GetGlobalFactory().GetIncidentRepository().ListByProject(project.ID, offset, limit)
	if err != nil {
		log.Errorf("incident list failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load incidents")
	}
	return c.JSON(fiber.Map{"incidents": incidents})
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// HandleStatusSubscribe adds an email to a project's status-page subscriber
// list. Public route keyed by widget key; re-subscribing is a no-op.
func HandleStatusSubscribe(c *fiber.Ctx) error {
	widgetKey := strings.TrimSpace(c.Params("widgetKey"))
	project, err := repository.GetGlobalFactory().GetProjectRepository().GetByWidgetKey(widgetKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Unknown widget key")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load project")
	}
	if !project.StatusPageOn {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Status page not enabled")
	}

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Malformed request body")
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "A valid email is required")
	}

	sub := &models.StatusSubscriber{ProjectID: project.ID, Email: email}
	if err := repository.GetGlobalFactory().GetIncidentRepository().AddSubscriber(sub); err != nil {
		log.Errorf("status subscribe failed for project %d: %v", project.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to subscribe")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscribed": true})
}
