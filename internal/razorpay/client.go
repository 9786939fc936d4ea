// Package razorpay defines the interface for payment-gateway calls, verifies
// checkout signatures, and converts wallet amounts to gateway minor units.
package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// CreateOrderParams holds the inputs for creating a gateway order.
type CreateOrderParams struct {
	AmountMinor int64  // amount in minor units, e.g. 2550 for 25.50
	Currency    string // ISO 4217, e.g. "INR"
	Receipt     string // caller-generated correlation token, see NewReceipt
	Notes       map[string]string
}

// Order is the subset of a gateway order that callers need. Raw holds the
// exact JSON body returned by the gateway so handlers can pass it through
// unchanged.
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`

	Raw json.RawMessage `json:"-"`
}

// APIError is the gateway's error envelope:
//
//	{"error": {"code": "BAD_REQUEST_ERROR", "description": "...", "field": "amount"}}
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Field       string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("razorpay: %s (status %d): %s [field %s]", e.Code, e.StatusCode, e.Description, e.Field)
	}
	return fmt.Sprintf("razorpay: %s (status %d): %s", e.Code, e.StatusCode, e.Description)
}

// ─── CLIENT INTERFACE ─────────────────────────────────────────────────────────

// Client is the interface the api package uses for all gateway calls.
// The concrete implementation talks to the Razorpay REST API over HTTP.
// Tests inject a stub.
type Client interface {
	// CreateOrder registers a new order with the gateway. Nothing is stored
	// locally; the gateway owns the order.
	CreateOrder(ctx context.Context, p CreateOrderParams) (Order, error)

	// FetchOrder retrieves an existing order by id. Used to cross-check the
	// amount a client claims it paid.
	FetchOrder(ctx context.Context, orderID string) (Order, error)
}

// ─── AMOUNTS ─────────────────────────────────────────────────────────────────

// ErrInvalidAmount is returned for amounts that are not positive or that
// cannot be expressed exactly in minor units.
var ErrInvalidAmount = errors.New("razorpay: amount must be positive with at most two decimal places")

// MinorUnits converts an amount in major units to the gateway's minor units
// (multiply by 100). 25.50 becomes 2550. Fractions of a minor unit are
// rejected rather than rounded.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	minor := amount.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrInvalidAmount
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// MajorUnits converts gateway minor units back to a decimal amount.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// NewReceipt returns the receipt token for an order created at t:
// "rcpt_" followed by the Unix time in milliseconds.
func NewReceipt(t time.Time) string {
	return "rcpt_" + strconv.FormatInt(t.UnixMilli(), 10)
}
