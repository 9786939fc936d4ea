package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/wallet-topup-backend/internal/db"
)

// ─── CONSTANTS ───────────────────────────────────────────────────────────────

const (
	// DepositDetails is the description written on every wallet top-up record.
	DepositDetails = "Balance Added to Wallet"

	// OperationDeposit is the only operation kind this service writes.
	OperationDeposit = "Deposit"

	// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
	uniqueViolation = "23505"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// CreditDepositParams describes a verified gateway payment to be credited.
type CreditDepositParams struct {
	UserID    uuid.UUID
	Amount    decimal.Decimal
	OrderID   string
	PaymentID string

	// GatewayPayload is an optional snapshot of the gateway order, kept on the
	// transaction row for audit. Nil or empty stores SQL NULL.
	GatewayPayload json.RawMessage
}

// CreditDepositResult is the committed state after a deposit.
type CreditDepositResult struct {
	User        db.User
	Transaction db.Transaction
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

var (
	// ErrUserNotFound is returned when the wallet owner row does not exist.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrInvalidAmount is returned for zero or negative deposits.
	ErrInvalidAmount = errors.New("store: deposit amount must be positive")

	// ErrPaymentAlreadyCredited is returned when the gateway payment id already
	// has a transaction record. Nothing is written in that case.
	ErrPaymentAlreadyCredited = errors.New("store: payment already credited")
)

// ─── METHODS ─────────────────────────────────────────────────────────────────

// CreditDeposit adds p.Amount to the user's balance and appends the matching
// Deposit transaction in a single database transaction.
//
// The balance change is an atomic increment, never a read-modify-write in Go,
// so two concurrent deposits D1 and D2 on balance B always commit B+D1+D2.
// The transaction insert runs only after the increment succeeded; if the
// insert fails (including a replayed payment id) the increment is rolled back,
// so a balance is never changed without its audit record.
func (s *Store) CreditDeposit(ctx context.Context, p CreditDepositParams) (CreditDepositResult, error) {
	if !p.Amount.IsPositive() {
		return CreditDepositResult{}, ErrInvalidAmount
	}

	var res CreditDepositResult

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		user, err := q.IncrementUserBalance(ctx, db.IncrementUserBalanceParams{
			ID:     p.UserID,
			Amount: p.Amount,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("CreditDeposit: increment balance: %w", err)
		}

		txn, err := q.CreateTransaction(ctx, db.CreateTransactionParams{
			UserID:           p.UserID,
			Details:          DepositDetails,
			Amount:           p.Amount,
			Operation:        OperationDeposit,
			GatewayOrderID:   p.OrderID,
			GatewayPaymentID: p.PaymentID,
			GatewayPayload: pqtype.NullRawMessage{
				RawMessage: p.GatewayPayload,
				Valid:      len(p.GatewayPayload) > 0,
			},
		})
		if isUniqueViolation(err) {
			return ErrPaymentAlreadyCredited
		}
		if err != nil {
			return fmt.Errorf("CreditDeposit: create transaction: %w", err)
		}

		res = CreditDepositResult{User: user, Transaction: txn}
		return nil
	})
	if err != nil {
		return CreditDepositResult{}, err
	}

	return res, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
