package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/render"
	"bimberek/internal/sanitize"
	"bimberek/internal/session"
	"bimberek/internal/slug"
	"bimberek/internal/storage"
	"bimberek/internal/store"
)

// Admin groups the back-office handlers. Access control happens in the
// router: moderators reach moderation and the dashboard, product and
// shop management is admin-only.
type Admin struct {
	renderer      *render.Renderer
	productStore  *store.ProductStore
	categoryStore *store.CategoryStore
	orderStore    *store.OrderStore
	userStore     *store.UserStore
	themeStore    *store.ThemeStore
	sliderStore   *store.SliderStore
	mediaStore    *store.MediaStore
	commentStore  *store.CommentStore
	postStore     *store.PostStore
	storageClient *storage.Client
}

// NewAdmin creates the Admin handler group. storageClient may be nil
// when object storage is not configured.
func NewAdmin(renderer *render.Renderer, products *store.ProductStore, categories *store.CategoryStore, orders *store.OrderStore, users *store.UserStore, themes *store.ThemeStore, sliders *store.SliderStore, media *store.MediaStore, comments *store.CommentStore, posts *store.PostStore, storageClient *storage.Client) *Admin {
	return &Admin{
		renderer:      renderer,
		productStore:  products,
		categoryStore: categories,
		orderStore:    orders,
		userStore:     users,
		themeStore:    themes,
		sliderStore:   sliders,
		mediaStore:    media,
		commentStore:  comments,
		postStore:     posts,
		storageClient: storageClient,
	}
}

// imageBase returns the public URL prefix for stored files.
func (a *Admin) imageBase() string {
	if a.storageClient == nil {
		return ""
	}
	return a.storageClient.BaseURL()
}

// Dashboard renders the back-office landing page with headline counts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	products, err := a.productStore.List()
	if err != nil {
		slog.Error("product list failed", "error", err)
	}
	orders, err := a.orderStore.List()
	if err != nil {
		slog.Error("order list failed", "error", err)
	}
	pendingComments, err := a.commentStore.ListByStatus(models.ModerationPending)
	if err != nil {
		slog.Error("pending comments failed", "error", err)
	}
	pendingPosts, err := a.postStore.ListByStatus(models.ModerationPending)
	if err != nil {
		slog.Error("pending posts failed", "error", err)
	}

	a.renderer.Page(w, r, "admin_dashboard", &render.PageData{
		Title:   "Panel",
		Section: "admin",
		Data: map[string]any{
			"ProductCount": len(products),
			"OrderCount":   len(orders),
			"PendingCount": len(pendingComments) + len(pendingPosts),
			"Theme":        themeFor(r, a.themeStore),
		},
	})
}

// Products renders the product management table.
func (a *Admin) Products(w http.ResponseWriter, r *http.Request) {
	products, err := a.productStore.List()
	if err != nil {
		slog.Error("product list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_products", &render.PageData{
		Title:   "Produkty",
		Section: "admin",
		Data: map[string]any{
			"Products": products,
			"Theme":    themeFor(r, a.themeStore),
		},
	})
}

// ProductNew renders the empty product form.
func (a *Admin) ProductNew(w http.ResponseWriter, r *http.Request) {
	a.renderProductForm(w, r, &models.Product{}, "/admin/products")
}

// ProductEdit renders the form pre-filled with an existing product.
func (a *Admin) ProductEdit(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	product, err := a.productStore.FindByID(id)
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.NotFound(w, r)
		return
	}

	a.renderProductForm(w, r, product, "/admin/products/"+product.ID.String())
}

func (a *Admin) renderProductForm(w http.ResponseWriter, r *http.Request, product *models.Product, action string) {
	categories, err := a.categoryStore.Tree()
	if err != nil {
		slog.Error("category tree failed", "error", err)
	}
	media, err := a.mediaStore.List()
	if err != nil {
		slog.Error("media list failed", "error", err)
	}

	a.renderer.Page(w, r, "admin_product_form", &render.PageData{
		Title:   "Produkt",
		Section: "admin",
		Data: map[string]any{
			"Product":    product,
			"Categories": categories,
			"Media":      media,
			"Action":     action,
			"Theme":      themeFor(r, a.themeStore),
		},
	})
}

// productForm parses the shared product form fields.
func (a *Admin) productForm(r *http.Request) (*models.Product, error) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(r.FormValue("price"), ",", "."))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", r.FormValue("price"))
	}

	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("invalid stock %q", r.FormValue("stock"))
	}

	categoryID, err := formUUIDPtr(r, "category_id")
	if err != nil {
		return nil, err
	}

	return &models.Product{
		Name:            name,
		DescriptionHTML: sanitize.RichText(r.FormValue("description")),
		Price:           price.Round(2),
		Stock:           stock,
		CategoryID:      categoryID,
		ImageKey:        formStrPtr(r, "image_key"),
	}, nil
}

// ProductCreate inserts a new product with a slug derived from its name.
func (a *Admin) ProductCreate(w http.ResponseWriter, r *http.Request) {
	product, err := a.productForm(r)
	if err != nil {
		session.AddFlash(w, r, "error", "Sprawdź dane produktu.")
		http.Redirect(w, r, "/admin/products/new", http.StatusSeeOther)
		return
	}

	product.Slug, err = a.freeProductSlug(product.Name)
	if err != nil {
		slog.Error("product slug failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := a.productStore.Create(product); err != nil {
		slog.Error("product create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Produkt dodany.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

// ProductUpdate saves edits to an existing product. The slug is stable
// so published links keep working.
func (a *Admin) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	existing, err := a.productStore.FindByID(id)
	if err != nil {
		slog.Error("product lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.NotFound(w, r)
		return
	}

	product, err := a.productForm(r)
	if err != nil {
		session.AddFlash(w, r, "error", "Sprawdź dane produktu.")
		http.Redirect(w, r, "/admin/products/"+id.String(), http.StatusSeeOther)
		return
	}

	product.ID = id
	product.Slug = existing.Slug
	if err := a.productStore.Update(product); err != nil {
		slog.Error("product update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Produkt zapisany.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

// ProductDelete removes a product from the catalog.
func (a *Admin) ProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.productStore.Delete(id); err != nil {
		slog.Error("product delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Produkt usunięty.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (a *Admin) freeProductSlug(name string) (string, error) {
	base := slug.Generate(name)
	candidate := base
	for i := 2; ; i++ {
		existing, err := a.productStore.FindBySlug(candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Categories renders the category tree management page.
func (a *Admin) Categories(w http.ResponseWriter, r *http.Request) {
	tree, err := a.categoryStore.Tree()
	if err != nil {
		slog.Error("category tree failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_categories", &render.PageData{
		Title:   "Kategorie",
		Section: "admin",
		Data: map[string]any{
			"Tree":  tree,
			"Theme": themeFor(r, a.themeStore),
		},
	})
}

// CategoryCreate adds a category, optionally under a parent.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		session.AddFlash(w, r, "error", "Podaj nazwę kategorii.")
		http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
		return
	}

	parentID, err := formUUIDPtr(r, "parent_id")
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if _, err := a.categoryStore.Create(&models.Category{
		Name:     name,
		Slug:     slug.Generate(name),
		ParentID: parentID,
	}); err != nil {
		slog.Error("category create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryUpdate renames or re-parents a category. Re-parenting that
// would create a cycle is rejected.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	existing, err := a.categoryStore.FindByID(id)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.NotFound(w, r)
		return
	}

	parentID, err := formUUIDPtr(r, "parent_id")
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = existing.Name
	}

	existing.Name = name
	existing.ParentID = parentID
	if err := a.categoryStore.Update(existing); err != nil {
		if errors.Is(err, store.ErrCategoryCycle) {
			session.AddFlash(w, r, "error", "Kategoria nie może być własnym przodkiem.")
			http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
			return
		}
		slog.Error("category update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete removes a category. Children move up a level and
// products lose the assignment, both via the schema's ON DELETE rules.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.categoryStore.Delete(id); err != nil {
		slog.Error("category delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// Themes renders the theme management page.
func (a *Admin) Themes(w http.ResponseWriter, r *http.Request) {
	themes, err := a.themeStore.List()
	if err != nil {
		slog.Error("theme list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_themes", &render.PageData{
		Title:   "Motywy",
		Section: "admin",
		Data: map[string]any{
			"Themes": themes,
			"Theme":  themeFor(r, a.themeStore),
		},
	})
}

// themeForm parses and validates the theme form.
func themeForm(r *http.Request) (*models.Theme, error) {
	theme := &models.Theme{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Color1: r.FormValue("color1"),
		Color2: r.FormValue("color2"),
		Color3: r.FormValue("color3"),
	}
	if theme.Name == "" || !theme.Valid() {
		return nil, fmt.Errorf("invalid theme")
	}
	return theme, nil
}

// ThemeCreate adds a color scheme.
func (a *Admin) ThemeCreate(w http.ResponseWriter, r *http.Request) {
	theme, err := themeForm(r)
	if err != nil {
		session.AddFlash(w, r, "error", "Motyw musi mieć nazwę i trzy poprawne kolory.")
		http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
		return
	}

	if _, err := a.themeStore.Create(theme); err != nil {
		slog.Error("theme create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// ThemeUpdate saves edits to a color scheme.
func (a *Admin) ThemeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	theme, err := themeForm(r)
	if err != nil {
		session.AddFlash(w, r, "error", "Motyw musi mieć nazwę i trzy poprawne kolory.")
		http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
		return
	}

	theme.ID = id
	if err := a.themeStore.Update(theme); err != nil {
		slog.Error("theme update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// ThemeDelete removes a color scheme. Users who picked it fall back to
// the default styling.
func (a *Admin) ThemeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.themeStore.Delete(id); err != nil {
		slog.Error("theme delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// Orders renders the order management table.
func (a *Admin) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.orderStore.List()
	if err != nil {
		slog.Error("order list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_orders", &render.PageData{
		Title:   "Zamówienia",
		Section: "admin",
		Data: map[string]any{
			"Orders": orders,
			"Statuses": []models.OrderStatus{
				models.OrderPending, models.OrderPaid,
				models.OrderPaymentFailed, models.OrderCancelled,
			},
			"Theme": themeFor(r, a.themeStore),
		},
	})
}

// OrderSetStatus lets an admin override an order's status, e.g. for a
// refund handled outside the system.
func (a *Admin) OrderSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	status := models.OrderStatus(r.FormValue("status"))
	switch status {
	case models.OrderPending, models.OrderPaid, models.OrderPaymentFailed, models.OrderCancelled:
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := a.orderStore.SetStatus(id, status); err != nil {
		slog.Error("order status failed", "error", err, "order_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/orders", http.StatusSeeOther)
}

// Users renders the user management table.
func (a *Admin) Users(w http.ResponseWriter, r *http.Request) {
	users, err := a.userStore.List()
	if err != nil {
		slog.Error("user list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_users", &render.PageData{
		Title:   "Użytkownicy",
		Section: "admin",
		Data: map[string]any{
			"Users": users,
			"Roles": []models.Role{models.RoleUser, models.RoleModerator, models.RoleAdmin},
			"Theme": themeFor(r, a.themeStore),
		},
	})
}

// UserSetRole changes a user's role. Admins cannot demote themselves,
// so the shop always keeps at least one admin.
func (a *Admin) UserSetRole(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if id == sess.UserID {
		session.AddFlash(w, r, "error", "Nie możesz zmienić własnej roli.")
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}

	role := models.Role(r.FormValue("role"))
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
	default:
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := a.userStore.SetRole(id, role); err != nil {
		slog.Error("set role failed", "error", err, "user_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// UserReset2FA clears a staff member's TOTP enrollment so they can
// re-enroll, e.g. after losing the device.
func (a *Admin) UserReset2FA(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.userStore.ResetTOTP(id); err != nil {
		slog.Error("reset totp failed", "error", err, "user_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "2FA zresetowane.")
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
