package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"bimberek/internal/cart"
	"bimberek/internal/metrics"
	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/payment"
	"bimberek/internal/render"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

// Checkout groups order creation and payment handlers. The cart is
// turned into a durable order first; the payment session references the
// order, so an abandoned payment can be retried from the order page.
type Checkout struct {
	renderer   *render.Renderer
	carts      *cart.Manager
	orderStore *store.OrderStore
	themeStore *store.ThemeStore
	gateway    payment.Gateway
	collector  *metrics.Collector
}

// NewCheckout creates the checkout handler group. gateway may be nil
// when Stripe is not configured; orders are then created unpaid.
func NewCheckout(renderer *render.Renderer, carts *cart.Manager, orders *store.OrderStore, themes *store.ThemeStore, gateway payment.Gateway, collector *metrics.Collector) *Checkout {
	return &Checkout{
		renderer:   renderer,
		carts:      carts,
		orderStore: orders,
		themeStore: themes,
		gateway:    gateway,
		collector:  collector,
	}
}

// Page renders the checkout summary with the shipping address form.
func (h *Checkout) Page(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Load(r.Context(), r)
	if err != nil {
		slog.Error("cart load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if c.IsEmpty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	total, _ := c.Totals()
	h.renderer.Page(w, r, "checkout", &render.PageData{
		Title:   "Zamówienie",
		Section: "cart",
		Data: map[string]any{
			"Lines":           cartLines(c),
			"Total":           total,
			"ShippingAddress": "",
			"Theme":           themeFor(r, h.themeStore),
		},
	})
}

// Submit creates an order from the cart and redirects the customer to
// the payment provider. The cart is cleared once the order exists.
func (h *Checkout) Submit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	address := strings.TrimSpace(r.FormValue("shipping_address"))
	if address == "" || len(address) > 500 {
		session.AddFlash(w, r, "error", "Podaj adres dostawy.")
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}

	c, err := h.carts.Load(r.Context(), r)
	if err != nil {
		slog.Error("cart load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if c.IsEmpty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	order, err := h.orderStore.CreateFromCart(sess.UserID, address, c)
	if err != nil {
		slog.Error("order create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.collector.RecordOrderCreated()

	if err := h.carts.Clear(r.Context(), r); err != nil {
		slog.Error("cart clear failed", "error", err, "order_id", order.ID)
	}

	if h.gateway == nil {
		session.AddFlash(w, r, "info", "Płatności są chwilowo niedostępne. Zamówienie czeka na opłacenie.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	checkoutURL, err := h.gateway.StartSession(order, sess.Email)
	if err != nil {
		slog.Error("payment session failed", "error", err, "order_id", order.ID)
		session.AddFlash(w, r, "error", "Nie udało się rozpocząć płatności. Spróbuj ponownie z poziomu zamówienia.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

// List renders the customer's order history.
func (h *Checkout) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	orders, err := h.orderStore.ListByUser(sess.UserID)
	if err != nil {
		slog.Error("order list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "orders", &render.PageData{
		Title:   "Zamówienia",
		Section: "orders",
		Data: map[string]any{
			"Orders": orders,
			"Theme":  themeFor(r, h.themeStore),
		},
	})
}

// Detail renders one order. Customers only see their own orders.
func (h *Checkout) Detail(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	order, err := h.orderStore.FindByID(id)
	if err != nil {
		slog.Error("order lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if order == nil || (order.UserID != sess.UserID && !sess.IsStaff()) {
		http.NotFound(w, r)
		return
	}

	h.renderer.Page(w, r, "order_detail", &render.PageData{
		Title:   "Zamówienie",
		Section: "orders",
		Data: map[string]any{
			"Order":   order,
			"Payable": order.Status.Payable(),
			"Theme":   themeFor(r, h.themeStore),
		},
	})
}

// Pay restarts the payment session for a pending or failed order.
func (h *Checkout) Pay(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	order, err := h.orderStore.FindByID(id)
	if err != nil {
		slog.Error("order lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if order == nil || order.UserID != sess.UserID {
		http.NotFound(w, r)
		return
	}
	if !order.Status.Payable() {
		session.AddFlash(w, r, "error", "Tego zamówienia nie można już opłacić.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}
	if h.gateway == nil {
		session.AddFlash(w, r, "info", "Płatności są chwilowo niedostępne.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	checkoutURL, err := h.gateway.StartSession(order, sess.Email)
	if err != nil {
		slog.Error("payment session failed", "error", err, "order_id", order.ID)
		session.AddFlash(w, r, "error", "Nie udało się rozpocząć płatności.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

// Cancel abandons a payable order.
func (h *Checkout) Cancel(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	order, err := h.orderStore.FindByID(id)
	if err != nil {
		slog.Error("order lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if order == nil || order.UserID != sess.UserID {
		http.NotFound(w, r)
		return
	}
	if !order.Status.Payable() {
		session.AddFlash(w, r, "error", "Tego zamówienia nie można anulować.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	transitioned, err := h.orderStore.Demote(order.ID, models.OrderCancelled)
	if err != nil {
		slog.Error("order cancel failed", "error", err, "order_id", order.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !transitioned {
		// Payment landed between the lookup and the update.
		session.AddFlash(w, r, "error", "Tego zamówienia nie można anulować.")
		http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	session.AddFlash(w, r, "success", "Zamówienie anulowane.")
	http.Redirect(w, r, "/orders/"+order.ID.String(), http.StatusSeeOther)
}
