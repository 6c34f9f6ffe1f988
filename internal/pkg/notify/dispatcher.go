package notify

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/mail"
)

// ErrSendFailed wraps mail transport errors. The failure is recorded on the
// notification row and retried on the next poll cycle, never escalated to the
// caller of the outer job.
var ErrSendFailed = errors.New("notification send failed")

// Mailer is the outbound mail transport.
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

// MailerFunc adapts a plain function to the Mailer interface.
type MailerFunc func(to, subject, htmlBody, textBody string) error

func (f MailerFunc) Send(to, subject, htmlBody, textBody string) error {
	return f(to, subject, htmlBody, textBody)
}

// Repository provides the DB operations used by the dispatcher and its poller.
type Repository interface {
	ListUnsent(limit int) ([]models.IncidentNotification, error)
	MarkSent(id uint, sentAt time.Time) error
	MarkFailed(id uint, sendError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a notification repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListUnsent(limit int) ([]models.IncidentNotification, error) {
	var notifications []models.IncidentNotification
	err := r.db.Preload("Incident").
		Where("sent = ?", false).
		Order("created_at asc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *gormRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.IncidentNotification{}).Where("id = ?", id).Updates(map[string]interface{}{
		"sent":       true,
		"sent_at":    &sentAt,
		"last_error": "",
	}).Error
}

func (r *gormRepository) MarkFailed(id uint, sendError string) error {
	return r.db.Model(&models.IncidentNotification{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_error": sendError,
	}).Error
}

// Dispatcher formats and sends incident notification emails.
type Dispatcher struct {
	repo   Repository
	mailer Mailer
}

// NewDispatcher creates a dispatcher from injected repository and transport.
func NewDispatcher(repo Repository, mailer Mailer) *Dispatcher {
	if mailer == nil {
		mailer = MailerFunc(mail.SendMail)
	}
	return &Dispatcher{repo: repo, mailer: mailer}
}

// NewDispatcherFromDB creates a dispatcher with the SMTP transport.
func NewDispatcherFromDB(db *gorm.DB) *Dispatcher {
	return NewDispatcher(NewRepository(db), nil)
}

// Dispatch renders and sends one notification. On success the row is marked
// sent with a timestamp; on failure the error is stored and the row stays
// retriable for the next poll.
func (d *Dispatcher) Dispatch(n *models.IncidentNotification) error {
	subject := subjectFor(n)
	htmlBody := renderHTML(n)
	textBody := htmlToText(htmlBody)

	if err := d.mailer.Send(n.Email, subject, htmlBody, textBody); err != nil {
		if markErr := d.repo.MarkFailed(n.ID, err.Error()); markErr != nil {
			return fmt.Errorf("%w: %v (mark failed: %v)", ErrSendFailed, err, markErr)
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	return d.repo.MarkSent(n.ID, time.Now())
}

// FanOutIncident creates one pending notification per status subscriber of
// the incident's project. Used by the incident controller on state changes.
func FanOutIncident(db *gorm.DB, incident *models.Incident, notificationType string) (int, error) {
	var subscribers []models.StatusSubscriber
	if err := db.Where("project_id = ?", incident.ProjectID).Find(&subscribers).Error; err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range subscribers {
		n := models.IncidentNotification{
			IncidentID: incident.ID,
			Email:      sub.Email,
			Type:       notificationType,
		}
		if err := db.Create(&n).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
