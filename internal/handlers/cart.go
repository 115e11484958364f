package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bimberek/internal/cart"
	"bimberek/internal/render"
	"bimberek/internal/store"
)

// CartHandlers groups the session cart endpoints. The cart works for
// anonymous visitors; it lives in Valkey keyed by a cart cookie.
type CartHandlers struct {
	renderer     *render.Renderer
	carts        *cart.Manager
	productStore *store.ProductStore
	themeStore   *store.ThemeStore
}

// NewCart creates the cart handler group.
func NewCart(renderer *render.Renderer, carts *cart.Manager, products *store.ProductStore, themes *store.ThemeStore) *CartHandlers {
	return &CartHandlers{
		renderer:     renderer,
		carts:        carts,
		productStore: products,
		themeStore:   themes,
	}
}

// cartLine is the view of one cart row, with the precomputed line total.
type cartLine struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// cartLines converts cart items into display rows.
func cartLines(c *cart.Cart) []cartLine {
	items := c.Lines()
	lines := make([]cartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, cartLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return lines
}

// View renders the cart page.
func (h *CartHandlers) View(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Load(r.Context(), r)
	if err != nil {
		slog.Error("cart load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	total, units := c.Totals()
	h.renderer.Page(w, r, "cart", &render.PageData{
		Title:   "Koszyk",
		Section: "cart",
		Data: map[string]any{
			"Lines": cartLines(c),
			"Total": total,
			"Units": units,
			"Theme": themeFor(r, h.themeStore),
		},
	})
}

// Add puts a product in the cart. Repeated adds accumulate.
func (h *CartHandlers) Add(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.FormValue("product_id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	product, err := h.productStore.FindByID(productID)
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	qty, _ := strconv.Atoi(r.FormValue("quantity"))

	c, err := h.carts.Load(r.Context(), r)
	if err != nil {
		slog.Error("cart load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.Add(product, qty)
	if err := h.carts.Save(r.Context(), w, r, c); err != nil {
		slog.Error("cart save failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Update sets the quantity of a cart line. Zero removes the line.
func (h *CartHandlers) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.FormValue("product_id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	qty, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil || qty < 0 {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	product, err := h.productStore.FindByID(productID)
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c, err := h.carts.Load(r.Context(), r)
	if err != nil {
		slog.Error("cart load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if product == nil {
		// Product vanished from the catalog; drop the stale line.
		c.Remove(productID)
	} else {
		c.Set(product, qty)
	}

	if err := h.carts.Save(r.Context(), w, r, c); err != nil {
		slog.Error("cart save failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Remove deletes a cart line.
func (h *CartHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.FormValue("product_id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	c, err := h.carts.Load(r.Context(), r)
	if err != nil {
		slog.Error("cart load failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.Remove(productID)
	if err := h.carts.Save(r.Context(), w, r, c); err != nil {
		slog.Error("cart save failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}
