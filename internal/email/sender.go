package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Sender wraps a Transport with a per-send timeout and swallow-and-log error
// handling. Construct one in main and share it; it holds no mutable state.
type Sender struct {
	transport Transport
	timeout   time.Duration
	logger    *slog.Logger
}

// NewSender returns a Sender that delivers through t. A zero timeout leaves
// only the caller's context in charge.
func NewSender(t Transport, timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		transport: t,
		timeout:   timeout,
		logger:    logger,
	}
}

// Send delivers m and waits for the transport to finish, the timeout to
// expire, or ctx to be cancelled, whichever comes first.
//
// Send never panics and has no error return: every failure is logged here and
// described in the Result.
func (s *Sender) Send(ctx context.Context, m Message) Result {
	if err := m.Validate(); err != nil {
		s.logFailure(m, err)
		return Result{Err: err}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// Buffered so the goroutine can always finish, even after we stop waiting.
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("email: transport panic: %v", p)
			}
		}()
		done <- s.transport.Deliver(ctx, m)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("email: deliver: %w", ctx.Err())
	}

	if err != nil {
		s.logFailure(m, err)
		return Result{Err: err}
	}

	s.logger.Debug("email: delivered", "subject", m.Subject, "recipients", len(m.To))
	return Result{Delivered: true}
}

func (s *Sender) logFailure(m Message, err error) {
	s.logger.Error("email: send failed",
		"subject", m.Subject,
		"recipients", len(m.To),
		"error", err,
	)
}
