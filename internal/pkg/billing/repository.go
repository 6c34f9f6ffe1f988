package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

// Repository provides the DB operations used by the billing service.
type Repository interface {
	GetAccountByCustomerID(customerID string) (*models.BillingAccount, error)
	GetAccountBySubscriptionID(subscriptionID string) (*models.BillingAccount, error)
	UpdateAccountBilling(accountID uint, fields map[string]interface{}) error
	ListActivePlanMappings(provider string) ([]models.BillingPlanMapping, error)
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetAccountByCustomerID(customerID string) (*models.BillingAccount, error) {
	var account models.BillingAccount
	err := r.db.Where("provider_customer_id = ?", customerID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) GetAccountBySubscriptionID(subscriptionID string) (*models.BillingAccount, error) {
	var account models.BillingAccount
	err := r.db.Where("provider_subscription_id = ?", subscriptionID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccountBilling writes the mutable billing fields of an existing
// account row. The reconciler never constructs account records; accounts come
// from the signup flow.
func (r *gormRepository) UpdateAccountBilling(accountID uint, fields map[string]interface{}) error {
	res := r.db.Model(&models.BillingAccount{}).Where("id = ?", accountID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) ListActivePlanMappings(provider string) ([]models.BillingPlanMapping, error) {
	var mappings []models.BillingPlanMapping
	err := r.db.Where("provider = ? AND is_active = ?", provider, true).Find(&mappings).Error
	return mappings, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
