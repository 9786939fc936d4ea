package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrInvalidSignature is returned when a payment confirmation was not
	// signed by the gateway for this order/payment pair.
	ErrInvalidSignature = errors.New("razorpay: invalid payment signature")

	// ErrMissingSecret is a configuration error: verification is impossible
	// without the key secret, and it must never silently pass or fail.
	ErrMissingSecret = errors.New("razorpay: key secret is not configured")
)

// PaymentConfirmation is what the browser reports after checkout completes.
type PaymentConfirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}

// ComputeSignature returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)),
// the value the gateway sends back as razorpay_signature.
func ComputeSignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks c against secret. It returns nil only when the
// signature matches exactly. Missing fields yield ErrInvalidSignature; an
// empty secret yields ErrMissingSecret.
func VerifySignature(c PaymentConfirmation, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if c.OrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return ErrInvalidSignature
	}

	expected := ComputeSignature(c.OrderID, c.PaymentID, secret)
	if !hmac.Equal([]byte(expected), []byte(c.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}
