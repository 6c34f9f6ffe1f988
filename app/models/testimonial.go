package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	TestimonialStatusPending  = "pending"
	TestimonialStatusApproved = "approved"
	TestimonialStatusRejected = "rejected"
)

// Testimonial is one submitted customer quote/recording reference.
type Testimonial struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"not null;index" json:"project_id"`
	Project     Project        `gorm:"foreignKey:ProjectID" json:"-"`
	AuthorName  string         `gorm:"type:varchar(150);not null" json:"author_name" validate:"required,min=2,max=150"`
	AuthorEmail string         `gorm:"type:varchar(200);default:''" json:"author_email" validate:"omitempty,email,max=200"`
	AuthorRole  string         `gorm:"type:varchar(150);default:''" json:"author_role" validate:"max=150"`
	Body        string         `gorm:"type:text;not null" json:"body" validate:"required,min=3,max=5000"`
	Rating      int            `gorm:"default:0" json:"rating" validate:"min=0,max=5"`
	VideoURL    string         `gorm:"type:varchar(255);default:''" json:"video_url" validate:"omitempty,url,max=255"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending approved rejected"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Testimonial) Validate() error {
	v := validator.New()

	return v.Struct(t)
}
