// Package api implements the HTTP layer for the wallet top-up flow.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only uses the dependencies it needs.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nyashahama/wallet-topup-backend/internal/db"
	"github.com/nyashahama/wallet-topup-backend/internal/razorpay"
	"github.com/nyashahama/wallet-topup-backend/internal/store"
	"github.com/nyashahama/wallet-topup-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// RazorpayKeyID is public; the page hands it to checkout.js.
	RazorpayKeyID string

	// RazorpayKeySecret signs payment confirmations. Never logged.
	RazorpayKeySecret string

	// Currency is the ISO 4217 code every order is created in.
	Currency string

	// GatewayTimeout bounds each call to the payment gateway.
	GatewayTimeout time.Duration

	// VerifyOrderAmount makes payment-success compare the claimed amount with
	// the gateway's order before crediting.
	VerifyOrderAmount bool
}

// Ledger applies verified deposits. *store.Store satisfies it.
type Ledger interface {
	CreditDeposit(ctx context.Context, p store.CreditDepositParams) (store.CreditDepositResult, error)
}

// TokenVerifier resolves a bearer token to a user id. *auth.Verifier
// satisfies it.
type TokenVerifier interface {
	UserID(token string) (uuid.UUID, error)
}

// Server holds all shared dependencies.
type Server struct {
	// q handles single-query reads. Injected directly, no repo wrapper.
	q db.Querier

	// ledger performs the atomic balance + transaction write.
	ledger Ledger

	// gateway creates and fetches Razorpay orders.
	gateway razorpay.Client

	// tokens authenticates requests.
	tokens TokenVerifier

	// mail queues receipts; delivery happens off the request path.
	mail worker.Enqueuer

	validate *validator.Validate
	cfg      Config
	logger   *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	q db.Querier,
	ledger Ledger,
	gateway razorpay.Client,
	tokens TokenVerifier,
	mail worker.Enqueuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}

	s := &Server{
		q:        q,
		ledger:   ledger,
		gateway:  gateway,
		tokens:   tokens,
		mail:     mail,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		logger:   logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── Wallet top-up, signed-in users only ────────────────────
	r.Route("/addBalance", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/", s.handleAddBalancePage)
		r.Post("/create-order", s.handleCreateOrder)
		r.Post("/payment-success", s.handlePaymentSuccess)
	})

	return r
}
