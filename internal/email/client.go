// Package email delivers transactional mail through an injected Transport and
// provides a Gmail (OAuth2 + SMTP) Transport.
//
// Sender.Send never fails from the caller's point of view: delivery errors,
// timeouts and transport panics are logged and reported only in the returned
// Result. Code that sends mail after a payment can therefore ignore the
// outcome entirely. Callers that care (the retrying worker pool) inspect
// Result.Delivered.
package email

import (
	"context"
	"errors"
)

// Message is a single outbound email. The From address is owned by the
// Transport.
type Message struct {
	To       []string
	Cc       []string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string // plain-text alternative; may be empty
}

// Validate reports whether m can be handed to a Transport at all.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("email: message has no recipient")
	}
	for _, to := range m.To {
		if to == "" {
			return errors.New("email: empty recipient address")
		}
	}
	if m.Subject == "" {
		return errors.New("email: message has no subject")
	}
	if m.HTMLBody == "" && m.TextBody == "" {
		return errors.New("email: message has no body")
	}
	return nil
}

// Transport performs the actual delivery. Implementations must be safe for
// concurrent use and must honour ctx cancellation.
type Transport interface {
	Deliver(ctx context.Context, m Message) error
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, m Message) error

// Deliver calls f(ctx, m).
func (f TransportFunc) Deliver(ctx context.Context, m Message) error {
	return f(ctx, m)
}

// Result is the outcome of a Send. Err is nil when Delivered is true.
type Result struct {
	Delivered bool
	Err       error
}
