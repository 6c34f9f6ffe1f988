package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/CodeFuMaster/TrustLoops/internal/pkg/metrics/counter"
)

// HandleOpsStats returns webhook and notification counters for operators.
// Admin only; counters live in Redis and reset with it.
func HandleOpsStats(c *fiber.Ctx) error {
	events, err := counter.WebhookEventCounts()
	if err != nil {
		log.Errorf("ops stats: webhook event counts unavailable: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Counters unavailable")
	}
	failures, err := counter.WebhookFailureCounts()
	if err != nil {
		log.Errorf("ops stats: webhook failure counts unavailable: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Counters unavailable")
	}
	sent, failed, err := counter.NotificationCounts()
	if err != nil {
		log.Errorf("ops stats: notification counts unavailable: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Counters unavailable")
	}

	return c.JSON(fiber.Map{
		"webhooks": fiber.Map{
			"processed": events,
			"failed":    failures,
		},
		"notifications": fiber.Map{
			"sent":   sent,
			"failed": failed,
		},
	})
}
