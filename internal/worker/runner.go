// Package worker runs outbound mail off the request path. The api package
// holds a worker.Enqueuer and calls Enqueue after a deposit commits; it never
// waits for SMTP.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nyashahama/wallet-topup-backend/internal/email"
)

// ─── INTERFACES ───────────────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off mail.
// The concrete implementation is *Runner. In tests, any struct with an
// Enqueue method satisfies the interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, m email.Message) error
}

// Sender is satisfied by *email.Sender.
type Sender interface {
	Send(ctx context.Context, m email.Message) email.Result
}

// ErrQueueFull is returned by Enqueue when the buffer is full. Callers log it
// and move on; mail is best-effort.
var ErrQueueFull = errors.New("worker: mail queue is full")

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields fall back
// to DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent sending goroutines. Default: 2.
	Workers int

	// QueueSize is the channel buffer. Default: Workers*8.
	QueueSize int

	// JobTimeout bounds a single delivery attempt. Default: 20s.
	JobTimeout time.Duration

	// MaxRetries is the number of attempts per message. Default: 3.
	MaxRetries int

	// BaseBackoff is the wait after the first failed attempt; it doubles on
	// each further failure. Default: 1s.
	BaseBackoff time.Duration
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:     2,
		JobTimeout:  20 * time.Second,
		MaxRetries:  3,
		BaseBackoff: time.Second,
	}
}

// Runner manages a pool of goroutines that drain an in-process mail queue.
// Messages still queued when the process stops are dropped.
type Runner struct {
	sender Sender
	cfg    RunnerConfig
	logger *slog.Logger

	queue chan email.Message
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(sender Sender, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 8
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}

	return &Runner{
		sender: sender,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan email.Message, cfg.QueueSize),
	}
}

// Enqueue pushes m onto the queue without blocking. It satisfies Enqueuer.
func (r *Runner) Enqueue(_ context.Context, m email.Message) error {
	select {
	case r.queue <- m:
		r.logger.Debug("worker: enqueued mail", "subject", m.Subject)
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool. It blocks until ctx is cancelled and every
// goroutine has returned. Call it in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "queue", r.cfg.QueueSize)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-r.queue:
			r.sendWithRetry(ctx, m, log)
		}
	}
}

// sendWithRetry attempts delivery up to MaxRetries times with exponential
// back-off. The final failure is logged and the message dropped.
func (r *Runner) sendWithRetry(ctx context.Context, m email.Message, log *slog.Logger) {
	var last email.Result

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		last = r.sender.Send(jobCtx, m)
		cancel()

		if last.Delivered {
			log.Info("worker: mail delivered", "subject", m.Subject, "attempt", attempt)
			return
		}

		log.Warn("worker: mail attempt failed",
			"subject", m.Subject,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", last.Err,
		)

		if attempt < r.cfg.MaxRetries {
			backoff := r.cfg.BaseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	log.Error("worker: mail permanently failed", "subject", m.Subject, "error", last.Err)
}
