package models

import "time"

// BillingPlanMapping maps provider catalog identifiers (product/variant IDs)
// to internal plan types. A VariantID of zero means the mapping applies to
// every variant of the product; a ProductID of zero means the mapping is
// keyed by variant alone.
type BillingPlanMapping struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Provider     string    `gorm:"type:varchar(20);not null;index:ux_billing_plan_mappings_ref,unique,priority:1" json:"provider"`
	ProductID    int64     `gorm:"not null;default:0;index:ux_billing_plan_mappings_ref,unique,priority:2" json:"product_id"`
	VariantID    int64     `gorm:"not null;default:0;index:ux_billing_plan_mappings_ref,unique,priority:3" json:"variant_id"`
	InternalPlan string    `gorm:"type:varchar(50);not null;default:'free'" json:"internal_plan"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
