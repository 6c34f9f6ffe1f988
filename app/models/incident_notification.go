package models

import "time"

const (
	NotificationTypeIncidentCreated  = "incident_created"
	NotificationTypeIncidentUpdated  = "incident_updated"
	NotificationTypeIncidentResolved = "incident_resolved"
)

// IncidentNotification is one pending outbound email tied to a status-page
// incident. Rows are produced when an incident changes state and consumed by
// the notification dispatcher, which marks them sent or stores the send error
// for the next poll cycle.
type IncidentNotification struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	IncidentID uint       `gorm:"not null;index" json:"incident_id"`
	Incident   Incident   `gorm:"foreignKey:IncidentID" json:"-"`
	Email      string     `gorm:"type:varchar(200);not null" json:"email"`
	Type       string     `gorm:"type:varchar(32);not null" json:"type"`
	Sent       bool       `gorm:"default:false;index" json:"sent"`
	SentAt     *time.Time `gorm:"type:timestamp;default:null" json:"sent_at,omitempty"`
	LastError  string     `gorm:"type:text" json:"last_error"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
