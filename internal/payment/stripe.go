package payment

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"

	"bimberek/internal/models"
)

// StripeGateway implements Gateway against the Stripe checkout API.
type StripeGateway struct {
	webhookSecret string
	baseURL       string
	currency      string
}

// NewStripeGateway configures the Stripe client. baseURL is the public
// origin used to build the success and cancel redirect URLs.
func NewStripeGateway(secretKey, webhookSecret, baseURL, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		currency:      currency,
	}
}

// StartSession creates a Stripe checkout session from the order's item
// snapshots. The order id rides along as metadata so the webhook can
// find the order again.
func (g *StripeGateway) StartSession(order *models.Order, customerEmail string) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, it := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(minorUnits(it.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		CustomerEmail: stripe.String(customerEmail),
		SuccessURL:    stripe.String(g.baseURL + "/orders/" + order.ID.String() + "?payment=success"),
		CancelURL:     stripe.String(g.baseURL + "/orders/" + order.ID.String() + "?payment=cancelled"),
	}
	params.AddMetadata("order_id", order.ID.String())

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return sess.URL, nil
}

// VerifyEvent validates the Stripe-Signature header and maps the event
// onto the order lifecycle. Unknown event types come back as
// EventIgnored with a nil order id; the webhook handler acknowledges
// them without touching any order.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	kind := EventIgnored
	switch ev.Type {
	case "checkout.session.completed":
		kind = EventPaid
	case "checkout.session.async_payment_failed":
		kind = EventFailed
	case "checkout.session.expired":
		kind = EventExpired
	}
	if kind == EventIgnored {
		return &Event{Kind: EventIgnored}, nil
	}

	var sess struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	// Sessions created outside this shop (same Stripe account, another
	// tool) carry no order_id. They must be acknowledged, not retried.
	orderID, err := uuid.Parse(sess.Metadata["order_id"])
	if err != nil {
		slog.Warn("webhook session without order reference, ignoring",
			"session_id", sess.ID, "type", ev.Type)
		return &Event{Kind: EventIgnored, SessionID: sess.ID}, nil
	}

	return &Event{Kind: kind, OrderID: orderID, SessionID: sess.ID}, nil
}

// minorUnits converts a decimal amount to minor currency units (grosze).
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
