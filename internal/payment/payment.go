// Package payment integrates the Stripe hosted checkout. Orders are
// finalized exclusively through signed webhook events; the success
// redirect is never trusted.
package payment

import (
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

// Event kinds reported by VerifyEvent, mapped from the gateway's own
// event taxonomy.
const (
	EventPaid    = "paid"
	EventFailed  = "payment_failed"
	EventExpired = "expired"
	EventIgnored = "ignored"
)

// Event is a verified, decoded payment notification.
type Event struct {
	Kind      string
	OrderID   uuid.UUID
	SessionID string
}

// ErrBadSignature is returned for webhook payloads whose signature does
// not verify. Handlers respond 400 so the gateway retries nothing.
var ErrBadSignature = fmt.Errorf("payment: bad webhook signature")

// Gateway abstracts the payment provider so handlers can be tested
// without network calls.
type Gateway interface {
	// StartSession creates a hosted payment session for the order and
	// returns the URL to redirect the customer to.
	StartSession(order *models.Order, customerEmail string) (string, error)

	// VerifyEvent checks the webhook signature and decodes the event.
	// Returns ErrBadSignature when the payload cannot be trusted.
	VerifyEvent(payload []byte, signature string) (*Event, error)
}
