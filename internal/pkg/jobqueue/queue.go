package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/CodeFuMaster/TrustLoops/internal/pkg/cache"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "job:"
	JobQueueKey      = "job_queue"
	JobProcessingKey = "job_processing"

	// Job settings
	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour // Jobs expire after 24 hours
)

// Processor handles one job; returning an error marks the job for retry.
type Processor func(job *Job) error

// Queue manages background jobs using Redis
type Queue struct {
	client     *redis.Client
	workers    int
	processors map[JobType]Processor
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewQueue creates a new job queue
func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 3 // Default number of workers
	}

	return &Queue{
		client:     cache.GetClient(),
		workers:    workers,
		processors: make(map[JobType]Processor),
		stopCh:     make(chan struct{}),
	}
}

// RegisterProcessor wires a processor for a job type. Must be called before Start.
func (q *Queue) RegisterProcessor(jobType JobType, p Processor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processors[jobType] = p
}

// Enqueue stores a job and pushes it onto the queue
func (q *Queue) Enqueue(jobType JobType, payload map[string]interface{}) (string, error) {
	ctx := context.Background()
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}

	if err := q.saveJob(ctx, job); err != nil {
		return "", err
	}
	if err := q.client.RPush(ctx, JobQueueKey, job.ID).Err(); err != nil {
		return "", err
	}
	return job.ID, nil
}

// GetJob loads a job by id
func (q *Queue) GetJob(id string) (*Job, error) {
	ctx := context.Background()
	data, err := q.client.Get(ctx, JobKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.running = true
	q.stopCh = make(chan struct{})
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	// Recover jobs stuck in processing after a crash
	q.wg.Add(1)
	go q.stuckSweeper(10*time.Minute, 1*time.Minute)
}

// Stop stops the job queue workers
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		// Blocking pop with timeout so stop is noticed reasonably fast
		res, err := q.client.BLPop(ctx, 2*time.Second, JobQueueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] Worker %d pop error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}
		q.process(ctx, id, res[1])
	}
}

func (q *Queue) process(ctx context.Context, workerID int, jobID string) {
	job, err := q.GetJob(jobID)
	if err != nil {
		log.Errorf("[JobQueue] Worker %d: job %s not loadable: %v", workerID, jobID, err)
		return
	}

	q.mu.Lock()
	processor, ok := q.processors[job.Type]
	q.mu.Unlock()
	if !ok {
		q.fail(ctx, job, fmt.Errorf("no processor registered for job type %s", job.Type))
		return
	}

	now := time.Now()
	job.Status = JobStatusProcessing
	job.ProcessedAt = &now
	_ = q.client.RPush(ctx, JobProcessingKey, job.ID).Err()
	_ = q.saveJob(ctx, job)

	var procErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				procErr = fmt.Errorf("processor panic: %v", r)
			}
		}()
		procErr = processor(job)
	}()

	_ = q.client.LRem(ctx, JobProcessingKey, 1, job.ID).Err()

	if procErr != nil {
		q.fail(ctx, job, procErr)
		return
	}

	done := time.Now()
	job.Status = JobStatusCompleted
	job.CompletedAt = &done
	job.ErrorMsg = ""
	_ = q.saveJob(ctx, job)
}

func (q *Queue) fail(ctx context.Context, job *Job, procErr error) {
	job.ErrorMsg = procErr.Error()
	job.RetryCount++

	if job.RetryCount <= job.MaxRetries {
		job.Status = JobStatusRetrying
		log.Warnf("[JobQueue] Job %s failed (attempt %d/%d), requeueing: %v", job.ID, job.RetryCount, job.MaxRetries, procErr)
		_ = q.saveJob(ctx, job)
		_ = q.client.RPush(ctx, JobQueueKey, job.ID).Err()
		return
	}

	job.Status = JobStatusFailed
	log.Errorf("[JobQueue] Job %s failed permanently: %v", job.ID, procErr)
	_ = q.saveJob(ctx, job)
}

func (q *Queue) saveJob(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err()
}

// stuckSweeper periodically requeues jobs stuck in the processing list longer than maxAge
func (q *Queue) stuckSweeper(maxAge time.Duration, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
			if err != nil {
				log.Errorf("[JobQueue] Sweeper LRange error: %v", err)
				continue
			}
			now := time.Now()
			for _, id := range ids {
				job, err := q.GetJob(id)
				if err != nil {
					// Job data missing or unreadable; drop the stray entry
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					continue
				}
				if job.Status != JobStatusProcessing {
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					continue
				}
				started := job.ProcessedAt
				if started == nil || started.IsZero() {
					tmp := job.UpdatedAt
					started = &tmp
				}
				if now.Sub(*started) > maxAge {
					log.Warnf("[JobQueue] Recovering stuck job %s (type=%s), age=%s", job.ID, job.Type, now.Sub(*started))
					_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
					job.Status = JobStatusRetrying
					_ = q.saveJob(ctx, job)
					_ = q.client.RPush(ctx, JobQueueKey, id).Err()
				}
			}
		}
	}
}
