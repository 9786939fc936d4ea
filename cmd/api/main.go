package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/nyashahama/wallet-topup-backend/internal/api"
	"github.com/nyashahama/wallet-topup-backend/internal/auth"
	"github.com/nyashahama/wallet-topup-backend/internal/config"
	"github.com/nyashahama/wallet-topup-backend/internal/db"
	"github.com/nyashahama/wallet-topup-backend/internal/email"
	"github.com/nyashahama/wallet-topup-backend/internal/razorpay"
	"github.com/nyashahama/wallet-topup-backend/internal/store"
	"github.com/nyashahama/wallet-topup-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	// Missing gateway or mail credentials stop the process here.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port, "currency", cfg.Currency)

	// ── Database ──────────────────────────────────────────────────────────────
	pool, queries, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	defer queries.Close()
	logger.Info("database connected")

	// ── Store (atomic multi-step writes) ──────────────────────────────────────
	st := store.New(pool, queries)

	// ── Razorpay ──────────────────────────────────────────────────────────────
	gateway, err := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, cfg.GatewayTimeout)
	if err != nil {
		return fmt.Errorf("razorpay: %w", err)
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	tokens, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// ── Email (Gmail over SMTP with OAuth2) ───────────────────────────────────
	transport, err := email.NewGmailTransport(email.GmailConfig{
		Address:      cfg.GmailAddress,
		FromName:     cfg.MailFromName,
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		RefreshToken: cfg.GmailRefreshToken,
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		TokenTimeout: cfg.MailTimeout,
	})
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}
	sender := email.NewSender(transport, cfg.MailTimeout, logger)

	// ── Worker ────────────────────────────────────────────────────────────────
	runner := worker.NewRunner(sender, worker.RunnerConfig{
		Workers:    cfg.MailWorkers,
		JobTimeout: cfg.MailTimeout,
		MaxRetries: cfg.MailMaxRetries,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		queries,
		st,
		gateway,
		tokens,
		runner, // *Runner satisfies worker.Enqueuer
		api.Config{
			Env:               cfg.Env,
			RazorpayKeyID:     cfg.RazorpayKeyID,
			RazorpayKeySecret: cfg.RazorpayKeySecret,
			Currency:          cfg.Currency,
			GatewayTimeout:    cfg.GatewayTimeout,
			VerifyOrderAmount: cfg.VerifyOrderAmount,
		},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	// Root context cancelled by OS signal. Worker and HTTP server both respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(workerDone)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Receipts still queued at this point are dropped.
	<-workerDone
	logger.Info("shutdown complete")
	return nil
}

// openDB opens the connection pool and prepares all sqlc statements.
// Using db.Prepare (rather than db.New) means every query is validated against
// the database schema at startup. The server refuses to start if the schema
// is out of sync.
func openDB(dsn string) (*sql.DB, *db.Queries, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	queries, err := db.Prepare(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("prepare statements: %w", err)
	}

	return pool, queries, nil
}
