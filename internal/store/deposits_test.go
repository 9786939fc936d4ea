package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/wallet-topup-backend/internal/db"
	"github.com/nyashahama/wallet-topup-backend/internal/store"
)

var (
	userCols = []string{"id", "display_name", "email", "image", "balance", "created_at", "updated_at"}
	txnCols  = []string{"id", "user_id", "details", "amount", "operation", "gateway_order_id", "gateway_payment_id", "gateway_payload", "created_at"}
)

func newMockStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return store.New(pool, db.New(pool)), mock
}

func TestCreditDeposit_CommitsBalanceAndTransaction(t *testing.T) {
	st, mock := newMockStore(t)

	userID := uuid.New()
	txnID := uuid.New()
	now := time.Now()
	amount := decimal.RequireFromString("25.50")

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users\s+SET balance\s+= balance \+ \$1`).
		WithArgs(amount, userID).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(userID.String(), "Asha", "asha@example.com", nil, "125.60", now, now))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(userID, store.DepositDetails, amount, store.OperationDeposit, "order_1", "pay_1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(txnCols).
			AddRow(txnID.String(), userID.String(), store.DepositDetails, "25.50", store.OperationDeposit, "order_1", "pay_1", []byte(`{"id":"order_1"}`), now))
	mock.ExpectCommit()

	res, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:         userID,
		Amount:         amount,
		OrderID:        "order_1",
		PaymentID:      "pay_1",
		GatewayPayload: json.RawMessage(`{"id":"order_1"}`),
	})
	require.NoError(t, err)

	assert.True(t, res.User.Balance.Equal(decimal.RequireFromString("125.60")), "balance: got %s", res.User.Balance)
	assert.Equal(t, store.OperationDeposit, res.Transaction.Operation)
	assert.True(t, res.Transaction.Amount.Equal(amount))
	assert.True(t, res.Transaction.GatewayPayload.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_BalanceWriteFailsCreatesNoTransaction(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:    uuid.New(),
		Amount:    decimal.NewFromInt(10),
		OrderID:   "order_1",
		PaymentID: "pay_1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment balance")

	// No INSERT expectation was registered: an insert would fail the test.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_IncrementsInPlaceWithoutReadingBalance(t *testing.T) {
	pool, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(
		func(expectedSQL, actualSQL string) error {
			var lines []string
			for _, l := range strings.Split(actualSQL, "\n") {
				if !strings.HasPrefix(strings.TrimSpace(l), "--") {
					lines = append(lines, l)
				}
			}
			sql := strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
			if strings.HasPrefix(sql, "SELECT") {
				return fmt.Errorf("balance read before write: %s", sql)
			}
			if !strings.Contains(sql, expectedSQL) {
				return fmt.Errorf("%q does not contain %q", sql, expectedSQL)
			}
			return nil
		})))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	st := store.New(pool, db.New(pool))

	userID := uuid.New()
	now := time.Now()
	amount := decimal.NewFromInt(10)

	// Strict ordering: the first statement inside the transaction must be
	// the in-place increment.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET balance = balance + $1").
		WithArgs(amount, userID).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(userID.String(), "Asha", nil, nil, "20.00", now, now))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(sqlmock.NewRows(txnCols).
			AddRow(uuid.New().String(), userID.String(), store.DepositDetails, "10.00", store.OperationDeposit, "order_1", "pay_1", nil, now))
	mock.ExpectCommit()

	res, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:    userID,
		Amount:    amount,
		OrderID:   "order_1",
		PaymentID: "pay_1",
	})
	require.NoError(t, err)
	assert.True(t, res.User.Balance.Equal(decimal.NewFromInt(20)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_UnknownUserReturnsErrUserNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	_, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:    uuid.New(),
		Amount:    decimal.NewFromInt(10),
		OrderID:   "order_1",
		PaymentID: "pay_1",
	})
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_TransactionInsertFailureRollsBackBalance(t *testing.T) {
	st, mock := newMockStore(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(userID.String(), "Asha", nil, nil, "10.00", now, now))
	mock.ExpectQuery(`INSERT INTO transactions`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:    userID,
		Amount:    decimal.NewFromInt(10),
		OrderID:   "order_1",
		PaymentID: "pay_1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_ReplayedPaymentReturnsErrPaymentAlreadyCredited(t *testing.T) {
	st, mock := newMockStore(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(userID.String(), "Asha", nil, nil, "20.00", now, now))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "transactions_gateway_payment_id_key"})
	mock.ExpectRollback()

	_, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:    userID,
		Amount:    decimal.NewFromInt(10),
		OrderID:   "order_1",
		PaymentID: "pay_1",
	})
	assert.ErrorIs(t, err, store.ErrPaymentAlreadyCredited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_NonPositiveAmountNeverTouchesDatabase(t *testing.T) {
	st, mock := newMockStore(t)

	for _, amt := range []string{"0", "-5.00"} {
		_, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
			UserID:    uuid.New(),
			Amount:    decimal.RequireFromString(amt),
			OrderID:   "order_1",
			PaymentID: "pay_1",
		})
		assert.ErrorIs(t, err, store.ErrInvalidAmount, "amount %s", amt)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditDeposit_BeginFailureIsWrapped(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := st.CreditDeposit(context.Background(), store.CreditDepositParams{
		UserID:    uuid.New(),
		Amount:    decimal.NewFromInt(1),
		OrderID:   "order_1",
		PaymentID: "pay_1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}
