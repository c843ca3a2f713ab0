// Package jobrunner runs background workers over the durable job queue.
package jobrunner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jobstore "github.com/dalemusser/stratafiles/internal/app/store/jobs"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// JobHandler processes a job payload. A nil return marks the job completed;
// an error sends it back through the queue's retry policy.
type JobHandler func(ctx context.Context, payload bson.M) error

// Config holds configuration for the job runner.
type Config struct {
	// WorkerCount is the number of concurrent workers per queue.
	WorkerCount int

	// PollInterval is how often each worker polls for new jobs.
	PollInterval time.Duration

	// RetryDelay is the base delay before retrying a failed job.
	// Actual delay is RetryDelay * attempts.
	RetryDelay time.Duration

	// StaleJobThreshold is how long a job may stay "running" before the
	// cleanup pass assumes its worker died and requeues it. It doubles as
	// the per-job processing deadline.
	StaleJobThreshold time.Duration

	// CleanupInterval is how often to run cleanup tasks.
	CleanupInterval time.Duration

	// JobRetention is how long to keep finished jobs for observation.
	JobRetention time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount:       3,
		PollInterval:      time.Second,
		RetryDelay:        5 * time.Second,
		StaleJobThreshold: 5 * time.Minute,
		CleanupInterval:   time.Hour,
		JobRetention:      7 * 24 * time.Hour,
	}
}

// Runner manages job processing across registered queues. Jobs are pulled
// from the shared store, so multiple processes may run the same queues.
type Runner struct {
	store    *jobstore.Store
	handlers map[string]JobHandler
	config   Config
	logger   *zap.Logger

	workerID   string
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	running    atomic.Int32
	activeJobs sync.Map // jobID -> struct{}

	mu      sync.RWMutex
	queues  map[string]bool
	started bool
}

// New creates a new job runner.
func New(store *jobstore.Store, logger *zap.Logger, config ...Config) *Runner {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return &Runner{
		store:    store,
		handlers: make(map[string]JobHandler),
		config:   cfg,
		logger:   logger,
		workerID: uuid.New().String()[:8],
		queues:   make(map[string]bool),
	}
}

// Register registers a handler for a job type.
func (r *Runner) Register(jobType string, handler JobHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
}

// AddQueue registers a queue name for processing.
func (r *Runner) AddQueue(queueName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[queueName] = true
}

// Enqueue adds a job to be processed.
func (r *Runner) Enqueue(ctx context.Context, queueName, jobType string, payload bson.M) (jobstore.Job, error) {
	return r.store.Enqueue(ctx, queueName, jobType, payload)
}

// Start begins processing jobs on all registered queues.
func (r *Runner) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("runner already started")
	}
	r.started = true

	queues := make([]string, 0, len(r.queues))
	for q := range r.queues {
		queues = append(queues, q)
	}
	r.mu.Unlock()

	if len(queues) == 0 {
		r.logger.Warn("job runner started with no queues registered")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, queueName := range queues {
		for i := 0; i < r.config.WorkerCount; i++ {
			r.wg.Add(1)
			workerName := fmt.Sprintf("%s-%s-%d", r.workerID, queueName, i)
			go r.worker(ctx, queueName, workerName)
		}
	}

	r.wg.Add(1)
	go r.cleanup(ctx)

	r.logger.Info("job runner started",
		zap.Int("queues", len(queues)),
		zap.Int("workers_per_queue", r.config.WorkerCount),
		zap.Strings("queue_names", queues))

	return nil
}

// Stop gracefully stops the runner and waits for active jobs to complete.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("job runner stopped gracefully")
		return nil
	case <-ctx.Done():
		var activeJobs []string
		r.activeJobs.Range(func(key, _ any) bool {
			activeJobs = append(activeJobs, key.(string))
			return true
		})
		r.logger.Warn("job runner shutdown timed out",
			zap.Int32("active_jobs", r.running.Load()),
			zap.Strings("job_ids", activeJobs))
		return ctx.Err()
	}
}

// worker processes jobs from a single queue.
func (r *Runner) worker(ctx context.Context, queueName, workerName string) {
	defer r.wg.Done()

	r.logger.Debug("worker started",
		zap.String("worker", workerName),
		zap.String("queue", queueName))

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("worker stopping", zap.String("worker", workerName))
			return
		case <-ticker.C:
			r.processNextJob(ctx, queueName, workerName)
		}
	}
}

// processNextJob claims and processes the next available job.
func (r *Runner) processNextJob(ctx context.Context, queueName, workerName string) {
	claimCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	job, err := r.store.ClaimNext(claimCtx, queueName, workerName)
	cancel()

	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("failed to claim job",
				zap.String("queue", queueName),
				zap.Error(err))
		}
		return
	}

	if job == nil {
		return // No jobs available
	}

	r.running.Add(1)
	r.activeJobs.Store(job.ID.Hex(), struct{}{})
	defer func() {
		r.running.Add(-1)
		r.activeJobs.Delete(job.ID.Hex())
	}()

	r.mu.RLock()
	handler, ok := r.handlers[job.JobType]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("no handler registered for job type",
			zap.String("job_type", job.JobType),
			zap.String("job_id", job.ID.Hex()))
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.store.Fail(failCtx, job.ID, fmt.Sprintf("no handler for job type: %s", job.JobType), r.config.RetryDelay)
		cancel()
		return
	}

	start := time.Now()
	r.logger.Debug("processing job",
		zap.String("job_id", job.ID.Hex()),
		zap.String("job_type", job.JobType),
		zap.Int("attempt", job.Attempts))

	// Bound each job so a wedged handler cannot hold a worker forever.
	jobCtx, jobCancel := context.WithTimeout(ctx, r.config.StaleJobThreshold)
	err = handler(jobCtx, job.Payload)
	jobCancel()

	duration := time.Since(start)

	if err != nil {
		retryDelay := r.config.RetryDelay * time.Duration(job.Attempts)

		r.logger.Warn("job failed",
			zap.String("job_id", job.ID.Hex()),
			zap.String("job_type", job.JobType),
			zap.Int("attempt", job.Attempts),
			zap.Int("max_attempts", job.MaxAttempts),
			zap.Duration("duration", duration),
			zap.Error(err))

		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if failErr := r.store.Fail(failCtx, job.ID, err.Error(), retryDelay); failErr != nil {
			r.logger.Error("failed to mark job as failed",
				zap.String("job_id", job.ID.Hex()),
				zap.Error(failErr))
		}
		cancel()
		return
	}

	r.logger.Info("job completed",
		zap.String("job_id", job.ID.Hex()),
		zap.String("job_type", job.JobType),
		zap.Duration("duration", duration))

	completeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := r.store.Complete(completeCtx, job.ID); err != nil {
		r.logger.Error("failed to mark job as completed",
			zap.String("job_id", job.ID.Hex()),
			zap.Error(err))
	}
	cancel()
}

// cleanup runs periodic cleanup tasks.
func (r *Runner) cleanup(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	r.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runCleanup(ctx)
		}
	}
}

// runCleanup requeues stale running jobs and prunes old finished ones.
func (r *Runner) runCleanup(ctx context.Context) {
	staleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	count, err := r.store.CleanupStaleRunning(staleCtx, r.config.StaleJobThreshold)
	cancel()
	if err != nil {
		r.logger.Error("failed to cleanup stale jobs", zap.Error(err))
	} else if count > 0 {
		r.logger.Info("requeued stale running jobs", zap.Int64("count", count))
	}

	cutoff := time.Now().Add(-r.config.JobRetention)
	deleteCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deleted, err := r.store.DeleteOlderThan(deleteCtx, cutoff)
	cancel()
	if err != nil {
		r.logger.Error("failed to delete old jobs", zap.Error(err))
	} else if deleted > 0 {
		r.logger.Info("deleted old finished jobs", zap.Int64("count", deleted))
	}
}
