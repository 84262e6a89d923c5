// Package payment talks to the hosted checkout provider.  The rest of the
// application only sees the Provider interface and plain Session values.
package payment

import (
	"context"
	"errors"
)

// PaymentStatusPaid is the only session status that confirms a booking.
const PaymentStatusPaid = "paid"

// EventCheckoutCompleted is the webhook event type sent when a customer
// finishes checkout.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidSignature is returned by ParseWebhook when the payload was not
// signed with the configured secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SessionRequest describes a single line item checkout.
type SessionRequest struct {
	ProductName     string
	Description     string
	ImageURL        string
	Currency        string
	UnitAmountCents int64
	Quantity        int64
	Metadata        map[string]string
	SuccessURL      string
	CancelURL       string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// Paid reports whether the provider has collected payment.
func (s *Session) Paid() bool { return s != nil && s.PaymentStatus == PaymentStatusPaid }

// WebhookEvent is a verified provider notification.  Session is set only
// for checkout session events.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *Session
}

// Provider creates and inspects checkout sessions.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
