package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/billing"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/database"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/env"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/metrics/counter"
)

// WebhookController handles billing provider webhooks. Verification is a
// required injected capability; there is no bypass path in production.
type WebhookController struct {
	svc      *billing.Service
	verifier billing.SignatureVerifier
}

func NewWebhookController(svc *billing.Service, verifier billing.SignatureVerifier) *WebhookController {
	return &WebhookController{svc: svc, verifier: verifier}
}

// NewWebhookControllerFromEnv wires the controller for production use. With
// no secret configured every delivery is rejected (fail closed).
func NewWebhookControllerFromEnv() *WebhookController {
	secret := env.GetEnv("BILLING_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Warn("[Billing] BILLING_WEBHOOK_SECRET not configured; all webhook deliveries will be rejected")
	}
	return NewWebhookController(
		billing.NewServiceFromDB(database.GetDB()),
		billing.NewHMACSHA256Verifier(secret),
	)
}

// HandleBillingWebhook processes one provider delivery: verify, deduplicate,
// classify, reconcile. A non-2xx response makes the provider retry; anything
// acknowledged here must already be stored or intentionally discarded.
func (wc *WebhookController) HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Signature"))
	eventID := strings.TrimSpace(c.Get("X-Event-ID"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if !wc.verifier.Verify(rawBody, signature) {
		log.Warn("[Billing] Rejected webhook delivery with invalid signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	payload, err := billing.ParseWebhookPayload(rawBody)
	if err != nil {
		log.Warnf("[Billing] Rejected malformed webhook payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	created, stored, err := wc.svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderLemonSqueezy,
		ProviderEventID: eventID,
		EventName:       payload.EventName,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Billing] Could not persist webhook event %q: %v", payload.EventName, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		if eventResolved(stored) {
			// At-least-once delivery replay; already handled
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
		}
		// The earlier attempt never reached a terminal state, e.g. a store
		// outage was answered 5xx. The provider is retrying the same event,
		// so run it again instead of acknowledging it away.
		log.Infof("[Billing] Reprocessing webhook event %q after earlier failure: %s",
			payload.EventName, stored.ProcessingError)
	}

	action := billing.ClassifyEvent(payload.EventName)
	if action == billing.ActionIgnore {
		log.Infof("[Billing] Ignoring unrecognized webhook event %q", payload.EventName)
		_ = wc.svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	attrs := payload.Subscription()
	reconcileErr := wc.svc.Reconcile(ctx, action, attrs)
	_ = wc.svc.MarkWebhookProcessed(ctx, stored.ID, reconcileErr)

	switch {
	case reconcileErr == nil:
		_ = counter.AddWebhookEvent(payload.EventName)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})

	case errors.Is(reconcileErr, billing.ErrAccountNotFound):
		// Acknowledge so the provider does not retry-storm; the stored event
		// carries the error for manual reconciliation.
		log.Warnf("[Billing] No account for event %q (action=%s, customer=%s, subscription=%s): %v",
			payload.EventName, action, attrs.CustomerID, attrs.SubscriptionID, reconcileErr)
		_ = counter.AddWebhookFailure(payload.EventName)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})

	case errors.Is(reconcileErr, billing.ErrDeserializationFailed):
		log.Warnf("[Billing] Invalid subscription attributes in event %q: %v", payload.EventName, reconcileErr)
		_ = counter.AddWebhookFailure(payload.EventName)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})

	default:
		// Persistence failure: surface 5xx so the provider retries
		log.Errorf("[Billing] Reconciliation failed for event %q (action=%s, subscription=%s): %v",
			payload.EventName, action, attrs.SubscriptionID, reconcileErr)
		_ = counter.AddWebhookFailure(payload.EventName)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reconcile_failed"})
	}
}

// eventResolved reports whether a stored webhook event needs no further
// processing. Successful runs and acknowledged missing-account events are
// terminal; an event that never finished, or whose reconciliation failed,
// stays open so the provider's retry hits the reconciler again.
func eventResolved(e *models.BillingWebhookEvent) bool {
	if e.ProcessedAt == nil {
		return false
	}
	if e.ProcessingError == "" {
		return true
	}
	return strings.Contains(e.ProcessingError, billing.ErrAccountNotFound.Error())
}
