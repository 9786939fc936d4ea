// Package store wraps db.Querier with transaction support and groups the
// multi-step write operations that must execute atomically.
//
// Single-query reads (GetUserByID, GetTransactionByPaymentID) should be called
// directly on db.Querier in handlers. There is no value in proxying them
// through this package.
//
// Dependency rule: store imports db only. It never imports api, worker,
// razorpay, or email.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nyashahama/wallet-topup-backend/internal/db"
)

// Store holds a *sql.DB for starting transactions and the prepared queries
// that are rebound to each transaction.
type Store struct {
	// pool is the raw connection pool, used only to begin transactions.
	pool *sql.DB

	// q is rebound with WithTx inside withTx.
	q *db.Queries
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via db.PingContext) before calling New.
func New(pool *sql.DB, q *db.Queries) *Store {
	return &Store{pool: pool, q: q}
}

// txQuerier is a function that receives a transactional Querier and returns an
// error. Returning a non-nil error causes withTx to roll back automatically.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a transaction, passes a Querier scoped to that transaction to
// fn, and commits on success or rolls back on any error (including panics).
//
// Read committed is enough here: every balance change is a single
// UPDATE ... SET balance = balance + $1, which holds the row lock until commit
// and re-reads the latest committed value. Serializable would only add
// serialization failures for concurrent deposits to the same wallet.
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, s.q.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}
