package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeNotificationEmail JobType = "notification_email"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// NotificationEmailJobPayload contains the payload for notification email jobs
type NotificationEmailJobPayload struct {
	NotificationID uint   `json:"notification_id"`
	Email          string `json:"email"` // informational, for queue inspection
}

// ToMap converts the payload to a map for storage
func (p NotificationEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"notification_id": p.NotificationID,
		"email":           p.Email,
	}
}

// NotificationEmailJobPayloadFromMap creates a payload from a map
func NotificationEmailJobPayloadFromMap(data map[string]interface{}) (*NotificationEmailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload NotificationEmailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}
