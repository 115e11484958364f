// admin_crud_test.go covers back-office CRUD handlers: products,
// categories (including the cycle guard), themes, order status
// overrides and user role management.
package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bimberek/internal/models"
	"bimberek/internal/store"
)

func TestProductCreate_DerivesSlugAndRoundsPrice(t *testing.T) {
	env := newTestEnv(t)
	cleanProducts(t, env.DB, "nalewka-wisniowa")
	t.Cleanup(func() { cleanProducts(t, env.DB, "nalewka-wisniowa") })

	form := url.Values{}
	form.Set("name", "Nalewka wiśniowa")
	form.Set("price", "59,999")
	form.Set("stock", "5")
	form.Set("description", "<p>Domowa receptura.</p>")

	rec := httptest.NewRecorder()
	env.Admin.ProductCreate(rec, postForm("/admin/products", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/products" {
		t.Errorf("Location: got %q, want /admin/products", loc)
	}

	product, err := env.ProductStore.FindBySlug("nalewka-wisniowa")
	if err != nil || product == nil {
		t.Fatalf("find product: %v", err)
	}
	if want := decimal.RequireFromString("60.00"); !product.Price.Equal(want) {
		t.Errorf("price: got %s, want %s", product.Price, want)
	}
	if product.Stock != 5 {
		t.Errorf("stock: got %d, want 5", product.Stock)
	}
}

func TestProductCreate_RejectsNegativePrice(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("name", "Podejrzany produkt")
	form.Set("price", "-10")
	form.Set("stock", "1")

	rec := httptest.NewRecorder()
	env.Admin.ProductCreate(rec, postForm("/admin/products", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/products/new" {
		t.Errorf("Location: got %q, want /admin/products/new", loc)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash to be queued")
	}
}

func TestProductUpdate_KeepsSlugStable(t *testing.T) {
	env := newTestEnv(t)
	cleanProducts(t, env.DB, "miod-pitny")
	t.Cleanup(func() { cleanProducts(t, env.DB, "miod-pitny") })

	product, err := env.ProductStore.Create(&models.Product{
		Name:  "Miód pitny",
		Slug:  "miod-pitny",
		Price: decimal.RequireFromString("35.00"),
		Stock: 3,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	form := url.Values{}
	form.Set("name", "Miód pitny trójniak")
	form.Set("price", "39.00")
	form.Set("stock", "8")

	req := postForm("/admin/products/"+product.ID.String(), form)
	req = withChiURLParam(req, "id", product.ID.String())
	rec := httptest.NewRecorder()

	env.Admin.ProductUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	updated, err := env.ProductStore.FindByID(product.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload product: %v", err)
	}
	if updated.Slug != "miod-pitny" {
		t.Errorf("slug: got %q, want miod-pitny (published links must keep working)", updated.Slug)
	}
	if updated.Name != "Miód pitny trójniak" {
		t.Errorf("name: got %q", updated.Name)
	}
}

func TestCategoryUpdate_RejectsCycle(t *testing.T) {
	env := newTestEnv(t)

	parent, err := env.CategoryStore.Create(&models.Category{Name: "Trunki testowe", Slug: "trunki-testowe"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := env.CategoryStore.Create(&models.Category{Name: "Nalewki testowe", Slug: "nalewki-testowe", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	t.Cleanup(func() {
		env.CategoryStore.Delete(child.ID)
		env.CategoryStore.Delete(parent.ID)
	})

	// Try to hang the parent under its own child.
	form := url.Values{}
	form.Set("name", "Trunki testowe")
	form.Set("parent_id", child.ID.String())

	req := postForm("/admin/categories/"+parent.ID.String(), form)
	req = withChiURLParam(req, "id", parent.ID.String())
	rec := httptest.NewRecorder()

	env.Admin.CategoryUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash for the cycle")
	}

	reloaded, err := env.CategoryStore.FindByID(parent.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload parent: %v", err)
	}
	if reloaded.ParentID != nil {
		t.Error("parent category must stay a root after the rejected re-parent")
	}
}

func TestCategoryStoreUpdate_ReturnsCycleError(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.CategoryStore.Create(&models.Category{Name: "Cykl A", Slug: "cykl-a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := env.CategoryStore.Create(&models.Category{Name: "Cykl B", Slug: "cykl-b", ParentID: &a.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		env.CategoryStore.Delete(b.ID)
		env.CategoryStore.Delete(a.ID)
	})

	a.ParentID = &b.ID
	if err := env.CategoryStore.Update(a); !errors.Is(err, store.ErrCategoryCycle) {
		t.Errorf("got %v, want ErrCategoryCycle", err)
	}
}

func TestThemeCreate_RejectsMalformedColors(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("name", "Zepsuty motyw")
	form.Set("color1", "#12345")
	form.Set("color2", "#aabbcc")
	form.Set("color3", "red")

	rec := httptest.NewRecorder()
	env.Admin.ThemeCreate(rec, postForm("/admin/themes", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash for malformed colors")
	}
}

func TestOrderSetStatus_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	req := postForm("/admin/orders/"+uuid.New().String()+"/status",
		url.Values{"status": {"wysłane"}})
	req = withChiURLParam(req, "id", uuid.New().String())
	rec := httptest.NewRecorder()

	env.Admin.OrderSetStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUserSetRole_BlocksSelfChange(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "samotny-admin@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "samotny-admin@example.com") })

	admin, err := env.UserStore.Create("samotny-admin@example.com", "samotny-admin", "tajnehaslo123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("role", "user")

	req := postForm("/admin/users/"+admin.ID.String()+"/role", form)
	req = withChiURLParamAndSession(req, "id", admin.ID.String(),
		testSession(admin.ID, admin.Handle, "admin", true))
	rec := httptest.NewRecorder()

	env.Admin.UserSetRole(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash for a self role change")
	}

	reloaded, err := env.UserStore.FindByID(admin.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want %q", reloaded.Role, models.RoleAdmin)
	}
}

func TestUserSetRole_PromotesOtherUser(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "awansowana@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "awansowana@example.com") })

	user, err := env.UserStore.Create("awansowana@example.com", "awansowana", "tajnehaslo123", models.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("role", "moderator")

	req := postForm("/admin/users/"+user.ID.String()+"/role", form)
	req = withChiURLParamAndSession(req, "id", user.ID.String(),
		testSession(uuid.New(), "inna-adminka", "admin", true))
	rec := httptest.NewRecorder()

	env.Admin.UserSetRole(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	reloaded, err := env.UserStore.FindByID(user.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Role != models.RoleModerator {
		t.Errorf("role: got %q, want %q", reloaded.Role, models.RoleModerator)
	}
}
