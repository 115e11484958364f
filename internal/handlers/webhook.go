package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"bimberek/internal/mail"
	"bimberek/internal/metrics"
	"bimberek/internal/models"
	"bimberek/internal/payment"
	"bimberek/internal/store"
)

// maxWebhookBody caps webhook payload size.
const maxWebhookBody = 64 << 10

// Webhook receives payment gateway events. The endpoint authenticates
// with the gateway signature, not a session, and sits outside the CSRF
// middleware.
type Webhook struct {
	gateway    payment.Gateway
	orderStore *store.OrderStore
	userStore  *store.UserStore
	notifier   mail.Notifier
	collector  *metrics.Collector
}

// NewWebhook creates the webhook handler.
func NewWebhook(gateway payment.Gateway, orders *store.OrderStore, users *store.UserStore, notifier mail.Notifier, collector *metrics.Collector) *Webhook {
	return &Webhook{
		gateway:    gateway,
		orderStore: orders,
		userStore:  users,
		notifier:   notifier,
		collector:  collector,
	}
}

// Handle verifies and applies one gateway event. Replayed paid events
// are acknowledged without any side effects, so the gateway can retry
// deliveries safely.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		// Stripe is not configured; nothing can verify the signature.
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	event, err := h.gateway.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			slog.Warn("webhook signature rejected", "error", err)
			h.collector.RecordWebhook("rejected")
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		slog.Error("webhook verify failed", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	switch event.Kind {
	case payment.EventPaid:
		h.handlePaid(event)
	case payment.EventFailed:
		h.demote(event, models.OrderPaymentFailed, "payment_failed")
	case payment.EventExpired:
		h.demote(event, models.OrderCancelled, "expired")
	default:
		h.collector.RecordWebhook("ignored")
	}

	// Always acknowledge verified events; retries change nothing.
	w.WriteHeader(http.StatusOK)
}

// handlePaid transitions the order to paid exactly once. The mail
// confirmation and the metric fire only on the first transition.
func (h *Webhook) handlePaid(event *payment.Event) {
	transitioned, err := h.orderStore.MarkPaid(event.OrderID)
	if err != nil {
		slog.Error("mark paid failed", "error", err, "order_id", event.OrderID)
		return
	}
	if !transitioned {
		slog.Info("duplicate paid event", "order_id", event.OrderID, "session_id", event.SessionID)
		h.collector.RecordWebhook("duplicate")
		return
	}

	h.collector.RecordWebhook("paid")
	h.collector.RecordOrderPaid()
	slog.Info("order paid", "order_id", event.OrderID, "session_id", event.SessionID)

	order, err := h.orderStore.FindByID(event.OrderID)
	if err != nil || order == nil {
		slog.Error("paid order reload failed", "error", err, "order_id", event.OrderID)
		return
	}
	user, err := h.userStore.FindByID(order.UserID)
	if err != nil || user == nil {
		slog.Error("paid order user lookup failed", "error", err, "order_id", event.OrderID)
		return
	}
	if err := h.notifier.OrderPaid(user.Email, order); err != nil {
		slog.Error("order mail failed", "error", err, "order_id", event.OrderID)
	}
}

// demote moves a payable order into a failure state. The store makes
// the transition conditional, so an unknown, paid or cancelled order
// is left alone even when the event races a completed payment.
func (h *Webhook) demote(event *payment.Event, status models.OrderStatus, outcome string) {
	transitioned, err := h.orderStore.Demote(event.OrderID, status)
	if err != nil {
		slog.Error("order status update failed", "error", err, "order_id", event.OrderID)
		return
	}
	if !transitioned {
		h.collector.RecordWebhook("ignored")
		return
	}

	h.collector.RecordWebhook(outcome)
	slog.Info("order demoted", "order_id", event.OrderID, "status", status)
}
