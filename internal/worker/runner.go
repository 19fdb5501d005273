// Package worker contains the background pipeline that assesses every user
// with notifications enabled once a day and sends risk alerts. It is
// decoupled from the HTTP layer: the api package holds a worker.Enqueuer
// interface and calls Enqueue, never the concrete Runner or Job types.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to request an
// assessment outside the daily schedule, e.g. right after onboarding.
//
// The concrete implementation is *Runner. In tests, any struct with an Enqueue
// method satisfies the interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID uuid.UUID) error
}

// DueLister finds users still waiting for today's assessment.
// *store.Store satisfies it.
type DueLister interface {
	ListDueUsers(ctx context.Context, on time.Time, limit int) ([]model.UserProfile, error)
}

// runnable is the part of *Job the Runner drives.
type runnable interface {
	Run(ctx context.Context, userID uuid.UUID) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. All fields have
// defaults if zero-valued; call DefaultRunnerConfig() to get them.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines. Default: 3.
	Workers int

	// PollInterval is how often the poller asks ListDueUsers for users with
	// no assessment today. Default: 15 minutes.
	PollInterval time.Duration

	// JobTimeout is the per-job context deadline. Default: 1 minute.
	// Set this longer than the generative timeout plus a weather fetch.
	JobTimeout time.Duration

	// MaxRetries is the number of attempts per user per poll. Default: 3.
	MaxRetries int

	// BatchSize caps how many due users one poll enqueues. Default: 100.
	BatchSize int
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: 15 * time.Minute,
		JobTimeout:   time.Minute,
		MaxRetries:   3,
		BatchSize:    100,
	}
}

// Runner manages a pool of worker goroutines. It accepts users via an
// in-process channel and polls the database periodically for users who have
// not been assessed today.
type Runner struct {
	job    runnable
	due    DueLister
	cfg    RunnerConfig
	logger *slog.Logger
	now    func() time.Time

	// backoff is the wait before retry n (1-based).
	backoff func(attempt int) time.Duration

	queue chan uuid.UUID
	wg    sync.WaitGroup

	// inflight prevents a user from being queued twice while a job for them
	// is waiting or running.
	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewRunner constructs a Runner. Call Start() to begin processing.
func NewRunner(job *Job, due DueLister, cfg RunnerConfig, logger *slog.Logger) *Runner {
	return newRunner(job, due, cfg, logger)
}

func newRunner(job runnable, due DueLister, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}

	return &Runner{
		job:    job,
		due:    due,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		// Exponential back-off: 2s, 4s, 8s …
		backoff:  func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
		queue:    make(chan uuid.UUID, cfg.BatchSize),
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Enqueue pushes a userID onto the in-process channel. It satisfies the
// Enqueuer interface. If the channel is full it returns an error rather than
// blocking the HTTP response.
func (r *Runner) Enqueue(_ context.Context, userID uuid.UUID) error {
	if !r.offer(userID) {
		return errors.New("worker: queue is full or user already queued")
	}
	r.logger.Info("worker: enqueued user", "user_id", userID)
	return nil
}

// offer queues userID unless it is already in flight or the queue is full.
func (r *Runner) offer(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[userID]; ok {
		return false
	}
	select {
	case r.queue <- userID:
		r.inflight[userID] = struct{}{}
		return true
	default:
		return false
	}
}

func (r *Runner) done(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.inflight, userID)
	r.mu.Unlock()
}

// Start launches the worker pool and the poller. It blocks until ctx is
// cancelled. Call it in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Info("worker: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker: goroutine stopping")
			return
		case userID := <-r.queue:
			r.runWithRetry(ctx, userID, log)
			r.done(userID)
		}
	}
}

// poll queries the database on PollInterval for users still due today.
func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	// Run once immediately on startup to pick up anything missed while down.
	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	users, err := r.due.ListDueUsers(ctx, r.now(), r.cfg.BatchSize)
	if err != nil {
		r.logger.Error("worker: poll failed", "error", err)
		return
	}
	queued := 0
	for _, u := range users {
		if r.offer(u.ID) {
			queued++
		}
	}
	if queued > 0 {
		r.logger.Debug("worker: poller enqueued users", "count", queued, "due", len(users))
	}
}

// runWithRetry executes the job up to MaxRetries times. A user that exhausts
// its retries is left for the next poll, which picks them up again because
// no assessment was recorded.
func (r *Runner) runWithRetry(ctx context.Context, userID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, userID)
		cancel()

		if lastErr == nil {
			log.Info("worker: job completed", "user_id", userID, "attempt", attempt)
			return
		}

		log.Warn("worker: job attempt failed",
			"user_id", userID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	log.Error("worker: job failed, will retry next poll", "user_id", userID, "error", lastErr)
}
