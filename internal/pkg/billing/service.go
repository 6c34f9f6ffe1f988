package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

// Service applies provider webhook events to local billing state.
type Service struct {
	repo  Repository
	plans *PlanResolver
}

// NewService creates a billing service from an injected repository and resolver.
func NewService(repo Repository, plans *PlanResolver) *Service {
	if plans == nil {
		plans = NewPlanResolver()
	}
	return &Service{repo: repo, plans: plans}
}

// NewServiceFromDB creates a billing service from a GORM DB handle, with plan
// mappings loaded from the database on top of the built-in catalog.
func NewServiceFromDB(db *gorm.DB) *Service {
	repo := NewRepository(db)
	plans := NewPlanResolver()
	if err := plans.LoadMappings(repo); err != nil {
		log.Warnf("[Billing] Could not load plan mappings, using built-in catalog: %v", err)
	}
	return NewService(repo, plans)
}

// Reconcile applies one classified webhook event to the affected account.
// Replaying the same event reapplies the same terminal field values, so the
// operation is idempotent under the provider's at-least-once delivery.
func (s *Service) Reconcile(ctx context.Context, action ReconciliationAction, attrs SubscriptionAttributes) error {
	_ = ctx

	if action == ActionIgnore {
		return nil
	}
	if attrs.SubscriptionID == "" || attrs.SubscriptionID == "0" {
		return fmt.Errorf("%w: missing subscription identifier", ErrDeserializationFailed)
	}

	switch action {
	case ActionCreateOrActivate:
		return s.createOrActivate(attrs)
	case ActionUpdateStatus:
		return s.updateStatus(attrs)
	case ActionEndSubscription:
		return s.applyStatus(attrs.SubscriptionID, map[string]interface{}{
			// Plan type and subscription id are retained for history/audit.
			"plan_status": models.BillingStatusCancelled,
		})
	case ActionRenewPeriod:
		fields := map[string]interface{}{
			"plan_status": models.BillingStatusActive,
		}
		if end := periodEnd(attrs); end != nil {
			fields["current_period_end"] = end
		}
		return s.applyStatus(attrs.SubscriptionID, fields)
	case ActionMarkPastDue:
		// Past due does not cancel; the provider keeps retrying payment.
		return s.applyStatus(attrs.SubscriptionID, map[string]interface{}{
			"plan_status": models.BillingStatusPastDue,
		})
	default:
		return nil
	}
}

func (s *Service) createOrActivate(attrs SubscriptionAttributes) error {
	account, err := s.repo.GetAccountByCustomerID(attrs.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: customer %s", ErrAccountNotFound, attrs.CustomerID)
		}
		return fmt.Errorf("%w: account lookup: %v", ErrPersistenceFailed, err)
	}

	fields := map[string]interface{}{
		"provider_subscription_id": attrs.SubscriptionID,
		"plan_type":                s.plans.Resolve(attrs.ProductID, attrs.VariantID),
		"plan_status":              models.BillingStatusActive,
	}
	applyPeriod(fields, attrs)
	if err := s.repo.UpdateAccountBilling(account.ID, fields); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func (s *Service) updateStatus(attrs SubscriptionAttributes) error {
	status := models.BillingStatusActive
	if strings.EqualFold(strings.TrimSpace(attrs.Status), models.BillingStatusCancelled) {
		status = models.BillingStatusCancelled
	}
	fields := map[string]interface{}{
		"plan_type":   s.plans.Resolve(attrs.ProductID, attrs.VariantID),
		"plan_status": status,
	}
	applyPeriod(fields, attrs)
	return s.applyStatus(attrs.SubscriptionID, fields)
}

// applyPeriod adds the billing period fields present in the payload. Events
// without timestamps leave the stored period untouched rather than clearing
// it.
func applyPeriod(fields map[string]interface{}, attrs SubscriptionAttributes) {
	if start := periodStart(attrs); start != nil {
		fields["current_period_start"] = start
	}
	if end := periodEnd(attrs); end != nil {
		fields["current_period_end"] = end
	}
}

func (s *Service) applyStatus(subscriptionID string, fields map[string]interface{}) error {
	account, err := s.repo.GetAccountBySubscriptionID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: subscription %s", ErrAccountNotFound, subscriptionID)
		}
		return fmt.Errorf("%w: account lookup: %v", ErrPersistenceFailed, err)
	}
	if err := s.repo.UpdateAccountBilling(account.ID, fields); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func periodStart(attrs SubscriptionAttributes) *time.Time {
	if attrs.CreatedAt.IsZero() {
		return nil
	}
	t := attrs.CreatedAt
	return &t
}

func periodEnd(attrs SubscriptionAttributes) *time.Time {
	if attrs.RenewsAt != nil {
		return attrs.RenewsAt
	}
	return attrs.EndsAt
}

// RecordWebhookEvent persists webhook payloads idempotently. The returned
// bool is false for a replayed delivery that was already stored.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		// No provider event id header: key the row by payload hash so exact
		// replays still deduplicate.
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventName:       strings.TrimSpace(in.EventName),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
