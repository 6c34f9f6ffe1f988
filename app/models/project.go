package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is one testimonial collection space. The WidgetKey is the public
// identifier embedded in the recording/embed widget.
type Project struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	Name         string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug         string         `gorm:"type:varchar(160);index" json:"slug" validate:"max=160"`
	WidgetKey    string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"widget_key"`
	BrandColor   string         `gorm:"type:varchar(9);default:'#6366f1'" json:"brand_color" validate:"omitempty,hexcolor"`
	WebsiteURL   string         `gorm:"type:varchar(255);default:''" json:"website_url" validate:"omitempty,url,max=255"`
	StatusPageOn bool           `gorm:"default:false" json:"status_page_on"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// BeforeCreate assigns the public widget key.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.WidgetKey == "" {
		p.WidgetKey = uuid.NewString()
	}
	return nil
}
