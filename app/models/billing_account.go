package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderLemonSqueezy = "lemonsqueezy"
)

// Internal plan types a customer can be entitled to.
const (
	PlanFree              = "free"
	PlanTestimonialHubPro = "testimonialhub_pro"
	PlanStatusPagePro     = "statuspage_pro"
	PlanBundle            = "bundle"
)

// Subscription lifecycle statuses.
const (
	BillingStatusActive    = "active"
	BillingStatusPastDue   = "past_due"
	BillingStatusCancelled = "cancelled"
)

// BillingAccount holds one user's billing state as the payment provider sees
// it. Created implicitly at signup (free tier, no subscription) and mutated
// exclusively by webhook reconciliation. Rows are never hard-deleted; a
// terminated subscription moves the status to cancelled and keeps the
// identifiers for audit.
//
// Invariant: PlanStatus is active or past_due only while
// ProviderSubscriptionID is set.
type BillingAccount struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	ProviderCustomerID     string     `gorm:"type:varchar(191);default:'';index" json:"provider_customer_id"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);default:'';index" json:"provider_subscription_id"`
	PlanType               string     `gorm:"type:varchar(50);not null;default:'free'" json:"plan_type"`
	PlanStatus             string     `gorm:"type:varchar(32);not null;default:'cancelled'" json:"plan_status"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasSubscription reports whether the account is linked to a provider subscription.
func (a *BillingAccount) HasSubscription() bool {
	return a.ProviderSubscriptionID != ""
}
