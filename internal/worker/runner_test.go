package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nyashahama/wallet-topup-backend/internal/email"
	"github.com/nyashahama/wallet-topup-backend/internal/worker"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubSender fails the first failFirst calls, then delivers.
type stubSender struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	done      chan struct{} // closed on first success, if non-nil
}

func (s *stubSender) Send(_ context.Context, _ email.Message) email.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirst {
		return email.Result{Err: errors.New("smtp unavailable")}
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	return email.Result{Delivered: true}
}

func (s *stubSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func msg() email.Message {
	return email.Message{To: []string{"a@example.com"}, Subject: "s", TextBody: "b"}
}

// ─── Runner ───────────────────────────────────────────────────────────────────

func TestRunner_RetriesUntilDelivered(t *testing.T) {
	done := make(chan struct{})
	sender := &stubSender{failFirst: 2, done: done}

	r := worker.NewRunner(sender, worker.RunnerConfig{
		Workers:     1,
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(stopped)
	}()

	if err := r.Enqueue(context.Background(), msg()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never delivered")
	}

	cancel()
	<-stopped

	if got := sender.callCount(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRunner_GivesUpAfterMaxRetries(t *testing.T) {
	sender := &stubSender{failFirst: 100}

	r := worker.NewRunner(sender, worker.RunnerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	if err := r.Enqueue(context.Background(), msg()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sender.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Give a would-be third attempt time to happen.
	time.Sleep(50 * time.Millisecond)

	if got := sender.callCount(); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
}

func TestRunner_EnqueueNeverBlocksWhenFull(t *testing.T) {
	// Not started: nothing drains the queue.
	r := worker.NewRunner(&stubSender{}, worker.RunnerConfig{Workers: 1, QueueSize: 2}, discardLogger())

	for i := range 2 {
		if err := r.Enqueue(context.Background(), msg()); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- r.Enqueue(context.Background(), msg()) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, worker.ErrQueueFull) {
			t.Errorf("expected ErrQueueFull, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestRunner_StartReturnsOnCancel(t *testing.T) {
	r := worker.NewRunner(&stubSender{}, worker.RunnerConfig{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestDefaultRunnerConfig(t *testing.T) {
	cfg := worker.DefaultRunnerConfig()
	if cfg.Workers != 2 || cfg.MaxRetries != 3 || cfg.JobTimeout != 20*time.Second || cfg.BaseBackoff != time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
