package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/billing"
)

const testWebhookSecret = "test-webhook-secret"

// fakeBillingRepo is an in-memory billing.Repository for controller tests.
type fakeBillingRepo struct {
	accounts  map[uint]*models.BillingAccount
	events    map[string]*models.BillingWebhookEvent
	nextEvent uint
	updateErr error
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		accounts: map[uint]*models.BillingAccount{},
		events:   map[string]*models.BillingWebhookEvent{},
	}
}

func (f *fakeBillingRepo) addAccount(a models.BillingAccount) {
	f.accounts[a.ID] = &a
}

func (f *fakeBillingRepo) GetAccountByCustomerID(customerID string) (*models.BillingAccount, error) {
	for _, a := range f.accounts {
		if a.ProviderCustomerID == customerID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) GetAccountBySubscriptionID(subscriptionID string) (*models.BillingAccount, error) {
	for _, a := range f.accounts {
		if a.ProviderSubscriptionID == subscriptionID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) UpdateAccountBilling(accountID uint, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.accounts[accountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "provider_subscription_id":
			a.ProviderSubscriptionID = v.(string)
		case "plan_type":
			a.PlanType = v.(string)
		case "plan_status":
			a.PlanStatus = v.(string)
		case "current_period_start":
			a.CurrentPeriodStart, _ = v.(*time.Time)
		case "current_period_end":
			a.CurrentPeriodEnd, _ = v.(*time.Time)
		}
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBillingRepo) ListActivePlanMappings(provider string) ([]models.BillingPlanMapping, error) {
	return nil, nil
}

func (f *fakeBillingRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	f.nextEvent++
	event.ID = f.nextEvent
	stored := *event
	f.events[key] = &stored
	copied := stored
	return true, &copied, nil
}

func (f *fakeBillingRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) eventByID(id uint) *models.BillingWebhookEvent {
	for _, e := range f.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func signTestBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newWebhookTestApp(repo *fakeBillingRepo) *fiber.App {
	app := fiber.New()
	wc := NewWebhookController(
		billing.NewService(repo, nil),
		billing.NewHMACSHA256Verifier(testWebhookSecret),
	)
	app.Post("/webhooks/billing", wc.HandleBillingWebhook)
	return app
}

func webhookBody(eventName string, customerID, subscriptionID, productID int64) []byte {
	body := fmt.Sprintf(`{
		"event_name": %q,
		"data": {
			"type": "subscriptions",
			"id": "%d",
			"attributes": {
				"id": %d,
				"customer_id": %d,
				"product_id": %d,
				"variant_id": 0,
				"status": "active",
				"created_at": "2026-08-01T10:00:00Z",
				"renews_at": "2026-09-01T10:00:00Z"
			}
		}
	}`, eventName, subscriptionID, subscriptionID, customerID, productID)
	return []byte(body)
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature, eventID string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	if eventID != "" {
		req.Header.Set("X-Event-ID", eventID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHandleBillingWebhook_InvalidSignature(t *testing.T) {
	repo := newFakeBillingRepo()
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 501, 9001, 12345)

	resp, decoded := postWebhook(t, app, body, "sha256=deadbeef", "evt-1")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_signature", decoded["error"])
	assert.Empty(t, repo.events, "rejected deliveries must not be stored")
}

func TestHandleBillingWebhook_MissingSignature(t *testing.T) {
	repo := newFakeBillingRepo()
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 501, 9001, 12345)

	resp, _ := postWebhook(t, app, body, "", "evt-1")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleBillingWebhook_MalformedPayload(t *testing.T) {
	repo := newFakeBillingRepo()
	app := newWebhookTestApp(repo)

	body := []byte(`{"data": {}}`)

	resp, decoded := postWebhook(t, app, body, signTestBody(body), "evt-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_payload", decoded["error"])
}

func TestHandleBillingWebhook_SubscriptionCreated(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.addAccount(models.BillingAccount{
		ID:                 1,
		UserID:             10,
		ProviderCustomerID: "501",
		PlanType:           models.PlanFree,
		PlanStatus:         models.BillingStatusCancelled,
	})
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 501, 9001, 12345)

	resp, decoded := postWebhook(t, app, body, signTestBody(body), "evt-created-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])

	account := repo.accounts[1]
	assert.Equal(t, "9001", account.ProviderSubscriptionID)
	assert.Equal(t, models.PlanTestimonialHubPro, account.PlanType)
	assert.Equal(t, models.BillingStatusActive, account.PlanStatus)
	require.NotNil(t, account.CurrentPeriodEnd)

	event := repo.eventByID(1)
	require.NotNil(t, event)
	assert.Equal(t, "evt-created-1", event.ProviderEventID)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError)
}

func TestHandleBillingWebhook_DuplicateDelivery(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.addAccount(models.BillingAccount{
		ID:                 1,
		UserID:             10,
		ProviderCustomerID: "501",
	})
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 501, 9001, 12345)
	sig := signTestBody(body)

	resp, _ := postWebhook(t, app, body, sig, "evt-dup")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, decoded := postWebhook(t, app, body, sig, "evt-dup")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["duplicate"])
	assert.Len(t, repo.events, 1)
}

func TestHandleBillingWebhook_UnknownEventIgnored(t *testing.T) {
	repo := newFakeBillingRepo()
	app := newWebhookTestApp(repo)

	body := webhookBody("order_refunded", 501, 9001, 12345)

	resp, decoded := postWebhook(t, app, body, signTestBody(body), "evt-order")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ignored"])

	event := repo.eventByID(1)
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt, "ignored events are still recorded as processed")
}

func TestHandleBillingWebhook_AccountNotFoundAcknowledged(t *testing.T) {
	repo := newFakeBillingRepo()
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 999, 9001, 12345)

	resp, decoded := postWebhook(t, app, body, signTestBody(body), "evt-noacct")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ignored"])

	event := repo.eventByID(1)
	require.NotNil(t, event)
	assert.Contains(t, event.ProcessingError, "account not found")

	// Retrying the acknowledged event stays acknowledged.
	resp, decoded = postWebhook(t, app, body, signTestBody(body), "evt-noacct")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["duplicate"])
}

func TestHandleBillingWebhook_RetryAfterPersistenceFailure(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.addAccount(models.BillingAccount{
		ID:                 1,
		UserID:             10,
		ProviderCustomerID: "501",
	})
	repo.updateErr = errors.New("connection reset")
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 501, 9001, 12345)
	sig := signTestBody(body)

	resp, _ := postWebhook(t, app, body, sig, "evt-retry")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// Store recovers and the provider retries the identical delivery. The
	// stored event never reached a terminal state, so it must be reprocessed
	// rather than acknowledged as a duplicate.
	repo.updateErr = nil
	resp, decoded := postWebhook(t, app, body, sig, "evt-retry")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["ok"])
	assert.Nil(t, decoded["duplicate"])

	account := repo.accounts[1]
	assert.Equal(t, models.BillingStatusActive, account.PlanStatus)
	assert.Equal(t, "9001", account.ProviderSubscriptionID)
	assert.Len(t, repo.events, 1)

	event := repo.eventByID(1)
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError)
}

func TestHandleBillingWebhook_PersistenceFailure(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.addAccount(models.BillingAccount{
		ID:                 1,
		UserID:             10,
		ProviderCustomerID: "501",
	})
	repo.updateErr = errors.New("connection reset")
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_created", 501, 9001, 12345)

	resp, decoded := postWebhook(t, app, body, signTestBody(body), "evt-dberr")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "reconcile_failed", decoded["error"])
}

func TestHandleBillingWebhook_PaymentFailedMarksPastDue(t *testing.T) {
	repo := newFakeBillingRepo()
	repo.addAccount(models.BillingAccount{
		ID:                     1,
		UserID:                 10,
		ProviderCustomerID:     "501",
		ProviderSubscriptionID: "9001",
		PlanType:               models.PlanTestimonialHubPro,
		PlanStatus:             models.BillingStatusActive,
	})
	app := newWebhookTestApp(repo)

	body := webhookBody("subscription_payment_failed", 501, 9001, 12345)

	resp, _ := postWebhook(t, app, body, signTestBody(body), "evt-pf")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	account := repo.accounts[1]
	assert.Equal(t, models.BillingStatusPastDue, account.PlanStatus)
	assert.Equal(t, "9001", account.ProviderSubscriptionID)
	assert.Equal(t, models.PlanTestimonialHubPro, account.PlanType)
}
