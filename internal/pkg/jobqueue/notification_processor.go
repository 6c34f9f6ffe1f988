package jobqueue

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/CodeFuMaster/TrustLoops/app/models"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/database"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/metrics/counter"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/notify"
)

// ProcessNotificationEmailJob sends one incident notification email.
func ProcessNotificationEmailJob(job *Job) error {
	payload, err := NotificationEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid notification job payload: %w", err)
	}

	db := database.GetDB()
	var n models.IncidentNotification
	if err := db.Preload("Incident").First(&n, payload.NotificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Row deleted since enqueue; nothing to send
			log.Warnf("[JobQueue] Notification %d no longer exists, skipping", payload.NotificationID)
			return nil
		}
		return err
	}
	if n.Sent {
		// Already delivered by an earlier attempt
		return nil
	}

	dispatcher := notify.NewDispatcherFromDB(db)
	if err := dispatcher.Dispatch(&n); err != nil {
		_ = counter.AddNotificationFailed()
		return err
	}
	_ = counter.AddNotificationSent()
	return nil
}
