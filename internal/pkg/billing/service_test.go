package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

type fakeRepo struct {
	accounts  []*models.BillingAccount
	writes    int
	failWrite error
	events    map[string]*models.BillingWebhookEvent
	processed map[uint]string
	nextID    uint
}

func newFakeRepo(accounts ...*models.BillingAccount) *fakeRepo {
	return &fakeRepo{
		accounts:  accounts,
		events:    make(map[string]*models.BillingWebhookEvent),
		processed: make(map[uint]string),
	}
}

func (f *fakeRepo) GetAccountByCustomerID(customerID string) (*models.BillingAccount, error) {
	for _, a := range f.accounts {
		if a.ProviderCustomerID == customerID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetAccountBySubscriptionID(subscriptionID string) (*models.BillingAccount, error) {
	for _, a := range f.accounts {
		if a.ProviderSubscriptionID == subscriptionID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateAccountBilling(accountID uint, fields map[string]interface{}) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	for _, a := range f.accounts {
		if a.ID != accountID {
			continue
		}
		f.writes++
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
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListActivePlanMappings(provider string) ([]models.BillingPlanMapping, error) {
	return nil, nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		return false, stored, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	f.processed[id] = processingError
	return nil
}

func proAccount() *models.BillingAccount {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return &models.BillingAccount{
		ID:                     1,
		UserID:                 10,
		ProviderCustomerID:     "111",
		ProviderSubscriptionID: "222",
		PlanType:               models.PlanTestimonialHubPro,
		PlanStatus:             models.BillingStatusActive,
		CurrentPeriodStart:     &start,
		CurrentPeriodEnd:       &end,
		UpdatedAt:              time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func subAttrs() SubscriptionAttributes {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	renews := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return SubscriptionAttributes{
		SubscriptionID: "222",
		CustomerID:     "111",
		ProductID:      12345,
		VariantID:      3,
		Status:         "active",
		CreatedAt:      created,
		RenewsAt:       &renews,
	}
}

func TestReconcileCreateOrActivate(t *testing.T) {
	account := proAccount()
	account.ProviderSubscriptionID = ""
	account.PlanType = models.PlanFree
	account.PlanStatus = models.BillingStatusCancelled
	repo := newFakeRepo(account)
	svc := NewService(repo, nil)

	attrs := subAttrs()
	if err := svc.Reconcile(context.Background(), ActionCreateOrActivate, attrs); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if account.PlanStatus != models.BillingStatusActive {
		t.Fatalf("expected active status, got %q", account.PlanStatus)
	}
	if account.PlanType != models.PlanTestimonialHubPro {
		t.Fatalf("expected plan from resolver table, got %q", account.PlanType)
	}
	if account.ProviderSubscriptionID != "222" {
		t.Fatalf("expected subscription id to be set, got %q", account.ProviderSubscriptionID)
	}
	if account.CurrentPeriodStart == nil || !account.CurrentPeriodStart.Equal(attrs.CreatedAt) {
		t.Fatalf("expected period start from payload, got %v", account.CurrentPeriodStart)
	}
	if account.CurrentPeriodEnd == nil || !account.CurrentPeriodEnd.Equal(*attrs.RenewsAt) {
		t.Fatalf("expected period end from payload, got %v", account.CurrentPeriodEnd)
	}

	// Replaying the identical event reapplies the same terminal state.
	if err := svc.Reconcile(context.Background(), ActionCreateOrActivate, attrs); err != nil {
		t.Fatalf("unexpected replay error: %v", err)
	}
	if account.PlanStatus != models.BillingStatusActive || account.PlanType != models.PlanTestimonialHubPro {
		t.Fatalf("replay changed terminal state: status=%q plan=%q", account.PlanStatus, account.PlanType)
	}
	if repo.writes != 2 {
		t.Fatalf("expected 2 writes, got %d", repo.writes)
	}
}

func TestReconcileAccountNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	err := svc.Reconcile(context.Background(), ActionCreateOrActivate, subAttrs())
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if repo.writes != 0 {
		t.Fatalf("expected no writes on lookup miss, got %d", repo.writes)
	}
}

func TestReconcileMarkPastDue(t *testing.T) {
	account := proAccount()
	repo := newFakeRepo(account)
	svc := NewService(repo, nil)

	if err := svc.Reconcile(context.Background(), ActionMarkPastDue, subAttrs()); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if account.PlanStatus != models.BillingStatusPastDue {
		t.Fatalf("expected past_due, got %q", account.PlanStatus)
	}
	// Payment failure must not clear the subscription link or entitlement.
	if account.ProviderSubscriptionID != "222" {
		t.Fatalf("subscription id was cleared: %q", account.ProviderSubscriptionID)
	}
	if account.PlanType != models.PlanTestimonialHubPro {
		t.Fatalf("plan type was cleared: %q", account.PlanType)
	}
}

func TestReconcileEndSubscription(t *testing.T) {
	account := proAccount()
	before := account.UpdatedAt
	repo := newFakeRepo(account)
	svc := NewService(repo, nil)

	if err := svc.Reconcile(context.Background(), ActionEndSubscription, subAttrs()); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if account.PlanStatus != models.BillingStatusCancelled {
		t.Fatalf("expected cancelled, got %q", account.PlanStatus)
	}
	if account.ProviderCustomerID != "111" || account.ProviderSubscriptionID != "222" {
		t.Fatalf("identifiers changed: customer=%q subscription=%q", account.ProviderCustomerID, account.ProviderSubscriptionID)
	}
	if !account.UpdatedAt.After(before) {
		t.Fatalf("expected updated timestamp to advance")
	}
}

func TestReconcileRenewPeriod(t *testing.T) {
	account := proAccount()
	account.PlanStatus = models.BillingStatusPastDue
	oldStart := *account.CurrentPeriodStart
	repo := newFakeRepo(account)
	svc := NewService(repo, nil)

	attrs := subAttrs()
	if err := svc.Reconcile(context.Background(), ActionRenewPeriod, attrs); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if account.PlanStatus != models.BillingStatusActive {
		t.Fatalf("expected active after renewal, got %q", account.PlanStatus)
	}
	if account.CurrentPeriodEnd == nil || !account.CurrentPeriodEnd.Equal(*attrs.RenewsAt) {
		t.Fatalf("expected period end updated, got %v", account.CurrentPeriodEnd)
	}
	if account.CurrentPeriodStart == nil || !account.CurrentPeriodStart.Equal(oldStart) {
		t.Fatalf("renewal must not touch period start, got %v", account.CurrentPeriodStart)
	}
}

func TestReconcileUpdateStatusCancelledPayload(t *testing.T) {
	account := proAccount()
	repo := newFakeRepo(account)
	svc := NewService(repo, nil)

	attrs := subAttrs()
	attrs.Status = "cancelled"
	if err := svc.Reconcile(context.Background(), ActionUpdateStatus, attrs); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if account.PlanStatus != models.BillingStatusCancelled {
		t.Fatalf("expected cancelled from payload status, got %q", account.PlanStatus)
	}
}

func TestReconcileUpdateStatusWithoutTimestamps(t *testing.T) {
	account := proAccount()
	oldStart := *account.CurrentPeriodStart
	oldEnd := *account.CurrentPeriodEnd
	repo := newFakeRepo(account)
	svc := NewService(repo, nil)

	attrs := subAttrs()
	attrs.CreatedAt = time.Time{}
	attrs.RenewsAt = nil
	if err := svc.Reconcile(context.Background(), ActionUpdateStatus, attrs); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}
	if account.CurrentPeriodStart == nil || !account.CurrentPeriodStart.Equal(oldStart) {
		t.Fatalf("payload without created_at cleared period start: %v", account.CurrentPeriodStart)
	}
	if account.CurrentPeriodEnd == nil || !account.CurrentPeriodEnd.Equal(oldEnd) {
		t.Fatalf("payload without renews_at cleared period end: %v", account.CurrentPeriodEnd)
	}
}

func TestReconcilePersistenceFailure(t *testing.T) {
	account := proAccount()
	repo := newFakeRepo(account)
	repo.failWrite = errors.New("connection reset")
	svc := NewService(repo, nil)

	err := svc.Reconcile(context.Background(), ActionMarkPastDue, subAttrs())
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
}

func TestReconcileMissingSubscriptionID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	attrs := subAttrs()
	attrs.SubscriptionID = "0"
	err := svc.Reconcile(context.Background(), ActionRenewPeriod, attrs)
	if !errors.Is(err, ErrDeserializationFailed) {
		t.Fatalf("expected ErrDeserializationFailed, got %v", err)
	}
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	in := WebhookEventInput{
		Provider:        models.BillingProviderLemonSqueezy,
		ProviderEventID: "evt_1",
		EventName:       "subscription_created",
		PayloadJSON:     `{"event_name":"subscription_created"}`,
		SignatureValid:  true,
	}
	created, stored, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created || stored == nil {
		t.Fatalf("expected first delivery to create: created=%v err=%v", created, err)
	}
	created, _, err = svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || created {
		t.Fatalf("expected replayed delivery to deduplicate: created=%v err=%v", created, err)
	}
}

func TestRecordWebhookEventHashesMissingEventID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	in := WebhookEventInput{
		Provider:    models.BillingProviderLemonSqueezy,
		EventName:   "subscription_updated",
		PayloadJSON: `{"event_name":"subscription_updated"}`,
	}
	created, stored, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("expected create, got created=%v err=%v", created, err)
	}
	if len(stored.ProviderEventID) == 0 || stored.ProviderEventID[:5] != "hash:" {
		t.Fatalf("expected hash-keyed event id, got %q", stored.ProviderEventID)
	}
	created, _, err = svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || created {
		t.Fatalf("expected identical payload to deduplicate, got created=%v err=%v", created, err)
	}
}
