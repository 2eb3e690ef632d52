package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/metrics"
)

// QueueConfig sizes a Queue.
type QueueConfig struct {
	// BufferSize is how many jobs can wait before PublishExport blocks.
	BufferSize int
	// Workers is the number of concurrent handlers.
	Workers int
	// MaxRetries is applied to jobs published without one.
	MaxRetries int
	// Backoff is multiplied by the retry count before a job is re-enqueued.
	Backoff time.Duration
}

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// This implementation is suitable for single-instance deployments and testing.
type Queue struct {
	jobChan   chan *jobs.ExportJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	cfg       QueueConfig
	log       zerolog.Logger
	metrics   *metrics.Metrics
	closed    bool
}

// NewQueue creates a new in-memory job queue. store and m may be nil.
func NewQueue(cfg QueueConfig, store jobs.JobStore, log zerolog.Logger, m *metrics.Metrics) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Queue{
		jobChan:   make(chan *jobs.ExportJob, cfg.BufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		cfg:       cfg,
		log:       log.With().Str("component", "export_queue").Logger(),
		metrics:   m,
	}
}

// PublishExport implements the Publisher interface.
// It enqueues an export job for asynchronous processing.
func (q *Queue) PublishExport(ctx context.Context, job *jobs.ExportJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	if closed {
		return jobs.ErrQueueClosed
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.cfg.MaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	// Workers get their own copy; job stays with the caller.
	select {
	case q.jobChan <- copyJob(job):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start implements the Consumer interface.
// It starts cfg.Workers goroutines that pass jobs to handler.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	q.log.Info().Int("workers", q.cfg.Workers).Msg("export queue started")
	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.ExportJob, handler jobs.JobHandler) {
	log := q.log.With().Str("job_id", job.JobID).Str("user_id", job.UserID).Logger()

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	err := q.safeHandle(ctx, job, handler)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	retry := false
	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Str("object_uri", job.ObjectURI).Int("rows", job.Rows).Msg("export job completed")
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		retry = true
		log.Warn().Err(err).Int("retry", job.RetryCount).Msg("export job failed, retrying")
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		log.Error().Err(err).Msg("export job failed")
	}

	q.count(job.Status)
	q.save(ctx, job)

	if retry {
		q.scheduleRetry(job)
	}
}

// scheduleRetry re-enqueues a copy of job after a linear backoff.
func (q *Queue) scheduleRetry(job *jobs.ExportJob) {
	next := *job
	next.Status = jobs.JobStatusPending
	next.StartedAt = nil
	next.CompletedAt = nil

	backoff := time.Duration(job.RetryCount) * q.cfg.Backoff
	time.AfterFunc(backoff, func() {
		if err := q.PublishExport(context.Background(), &next); err != nil {
			q.fail(context.Background(), next.JobID, fmt.Sprintf("re-enqueue: %v", err))
		}
	})
}

// safeHandle turns a handler panic into an error.
func (q *Queue) safeHandle(ctx context.Context, job *jobs.ExportJob, handler jobs.JobHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ExportJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to save job")
	}
}

// fail marks a stored job failed without touching its other fields.
func (q *Queue) fail(ctx context.Context, jobID, msg string) {
	q.count(jobs.JobStatusFailed)
	if q.store == nil {
		return
	}
	if err := q.store.UpdateJobStatus(ctx, jobID, jobs.JobStatusFailed, msg); err != nil {
		q.log.Error().Err(err).Str("job_id", jobID).Msg("failed to mark job failed")
	}
}

func (q *Queue) count(status jobs.JobStatus) {
	if q.metrics != nil {
		q.metrics.ExportJobsTotal.WithLabelValues(string(status)).Inc()
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
