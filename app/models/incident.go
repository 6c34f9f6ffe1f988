package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	IncidentStatusInvestigating = "investigating"
	IncidentStatusMonitoring    = "monitoring"
	IncidentStatusResolved      = "resolved"
)

// Incident is one status-page incident for a project.
type Incident struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProjectID  uint           `gorm:"not null;index" json:"project_id"`
	Project    Project        `gorm:"foreignKey:ProjectID" json:"-"`
	Title      string         `gorm:"type:varchar(200);not null" json:"title"`
	Message    string         `gorm:"type:text" json:"message"`
	Status     string         `gorm:"type:varchar(20);not null;default:'investigating';index" json:"status"`
	ResolvedAt *time.Time     `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// StatusSubscriber is one email address subscribed to a project's status page.
type StatusSubscriber struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index:ux_status_subscribers_project_email,unique,priority:1" json:"project_id"`
	Email     string    `gorm:"type:varchar(200);not null;index:ux_status_subscribers_project_email,unique,priority:2" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
