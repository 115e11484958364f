package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the payment lifecycle of an order.
type OrderStatus string

const (
	// OrderPending is the initial state after checkout; the order is
	// awaiting payment and may start (or restart) a payment session.
	OrderPending OrderStatus = "pending"
	// OrderPaid is set by the payment webhook on a completed session.
	OrderPaid OrderStatus = "paid"
	// OrderCancelled marks an order the user explicitly abandoned.
	OrderCancelled OrderStatus = "cancelled"
	// OrderPaymentFailed marks a gateway-reported payment failure.
	// The order remains payable.
	OrderPaymentFailed OrderStatus = "payment_failed"
)

// Payable reports whether a payment session may be started for this status.
func (s OrderStatus) Payable() bool {
	return s == OrderPending || s == OrderPaymentFailed
}

// Order is a durable record of a checkout. Item prices are snapshots
// taken at purchase time and never change with the live product price.
type Order struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	Status          OrderStatus `json:"status"`
	ShippingAddress string      `json:"shipping_address"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	// Items populated by store methods.
	Items []OrderItem `json:"items,omitempty"`
}

// Total sums quantity x unit price over all items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// OrderItem is one line of an order: product reference, quantity and the
// unit price captured when the order was created.
type OrderItem struct {
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"` // product name at purchase time
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
