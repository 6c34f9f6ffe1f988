package jobqueue

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/CodeFuMaster/TrustLoops/internal/pkg/database"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/env"
	"github.com/CodeFuMaster/TrustLoops/internal/pkg/notify"
)

const (
	defaultPollInterval    = 30 * time.Second
	defaultBackoffInterval = 5 * time.Minute
	notificationBatchSize  = 50
)

// Manager manages the global job queue and the notification poll loop.
// Single instance per process; running multiple processes risks duplicate
// sends (no cross-process coordination).
type Manager struct {
	queue           *Queue
	pollInterval    time.Duration
	backoffInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
	mu              sync.Mutex
	running         bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:           NewQueue(workerCount),
			pollInterval:    defaultPollInterval,
			backoffInterval: defaultBackoffInterval,
			stopCh:          make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and the notification poll loop
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and notification poller")

	m.queue.RegisterProcessor(JobTypeNotificationEmail, ProcessNotificationEmailJob)
	m.queue.Start()

	m.wg.Add(1)
	go m.notificationPollWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping...")
	close(m.stopCh)
	m.running = false
	m.wg.Wait()
	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped")
}

// notificationPollWorker scans for unsent incident notifications on a fixed
// interval and enqueues a send job for each. After an iteration-level error
// the next poll waits the longer backoff interval.
func (m *Manager) notificationPollWorker() {
	defer m.wg.Done()

	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-timer.C:
			err := m.pollOnce()
			if err != nil {
				log.Errorf("[JobQueue Manager] Notification poll failed: %v", err)
			}
			timer.Reset(nextPollInterval(m.pollInterval, m.backoffInterval, err))
		}
	}
}

func (m *Manager) pollOnce() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification poll panic: %v", r)
		}
	}()

	repo := notify.NewRepository(database.GetDB())
	pending, err := repo.ListUnsent(notificationBatchSize)
	if err != nil {
		return err
	}

	enqueued := 0
	for i := range pending {
		payload := NotificationEmailJobPayload{
			NotificationID: pending[i].ID,
			Email:          pending[i].Email,
		}
		// A single bad enqueue must not abort the batch
		if _, qerr := m.queue.Enqueue(JobTypeNotificationEmail, payload.ToMap()); qerr != nil {
			log.Warnf("[JobQueue Manager] Could not enqueue notification %d: %v", pending[i].ID, qerr)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		log.Infof("[JobQueue Manager] Enqueued %d notification emails", enqueued)
	}
	return nil
}

// nextPollInterval returns the delay before the next poll: the base interval
// normally, the backoff interval after a failed iteration.
func nextPollInterval(base, backoff time.Duration, lastErr error) time.Duration {
	if lastErr != nil {
		return backoff
	}
	return base
}
