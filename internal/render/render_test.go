package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bimberek/internal/middleware"
	"bimberek/internal/session"
)

// helperSession returns a session.Data suitable for rendering pages.
func helperSession() *session.Data {
	return &session.Data{
		UserID:    uuid.New(),
		Email:     "test@bimberek.local",
		Handle:    "testowa",
		Role:      "admin",
		TwoFADone: true,
	}
}

func requestWithSession(method, target string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if sess != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
	}
	return req
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		devMode bool
	}{
		{"dev mode", true},
		{"prod mode", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rn, err := New(tt.devMode)
			if err != nil {
				t.Fatalf("New(devMode=%v) returned error: %v", tt.devMode, err)
			}
			if len(rn.templates) == 0 {
				t.Error("renderer has no parsed templates")
			}

			for _, name := range []string{"home", "cart", "login", "register", "2fa_setup", "2fa_verify", "admin_dashboard"} {
				if _, ok := rn.templates[name]; !ok {
					t.Errorf("expected template %q to be parsed", name)
				}
			}

			// base.html is a layout, not a page.
			if _, ok := rn.templates["base"]; ok {
				t.Error("base.html should not be registered as a separate template")
			}
		})
	}
}

func TestPage_DevModeUsesCDNScript(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}

	w := httptest.NewRecorder()
	req := requestWithSession(http.MethodGet, "/cart", nil)
	rn.Page(w, req, "cart", &PageData{Title: "Koszyk", Data: map[string]any{
		"Lines": nil, "Total": decimal.Zero, "Units": 0,
	}})

	body := w.Body.String()
	if !strings.Contains(body, "unpkg.com/htmx.org") {
		t.Error("dev mode: expected the HTMX CDN URL in rendered output")
	}
	if strings.Contains(body, "/static/htmx.min.js") {
		t.Error("dev mode: should not reference the vendored HTMX file")
	}
}

func TestPage_ProdModeUsesStaticScript(t *testing.T) {
	rn, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error: %v", err)
	}

	w := httptest.NewRecorder()
	req := requestWithSession(http.MethodGet, "/cart", nil)
	rn.Page(w, req, "cart", &PageData{Title: "Koszyk", Data: map[string]any{
		"Lines": nil, "Total": decimal.Zero, "Units": 0,
	}})

	body := w.Body.String()
	if strings.Contains(body, "unpkg.com/htmx.org") {
		t.Error("prod mode: should not reference the CDN")
	}
	if !strings.Contains(body, "/static/htmx.min.js") {
		t.Error("prod mode: expected the vendored HTMX file reference")
	}
}

func TestPage_UnknownTemplateIs500(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}

	w := httptest.NewRecorder()
	req := requestWithSession(http.MethodGet, "/", nil)
	rn.Page(w, req, "nie-ma-takiego", &PageData{})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestPage_HTMXRendersContentOnly(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}

	w := httptest.NewRecorder()
	req := requestWithSession(http.MethodGet, "/cart", helperSession())
	req.Header.Set("HX-Request", "true")
	rn.Page(w, req, "cart", &PageData{Title: "Koszyk", Data: map[string]any{
		"Lines": nil, "Total": decimal.Zero, "Units": 0,
	}})

	body := w.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("HTMX partial should not include the full document shell")
	}
	if !strings.Contains(body, "Koszyk") {
		t.Error("expected the content fragment in the partial response")
	}
}

func TestPage_SessionShowsHandleInNav(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}

	sess := helperSession()
	w := httptest.NewRecorder()
	req := requestWithSession(http.MethodGet, "/cart", sess)
	rn.Page(w, req, "cart", &PageData{Title: "Koszyk", Data: map[string]any{
		"Lines": nil, "Total": decimal.Zero, "Units": 0,
	}})

	body := w.Body.String()
	if !strings.Contains(body, sess.Handle) {
		t.Error("expected the user handle in the navigation")
	}
	if !strings.Contains(body, "/admin") {
		t.Error("expected the back-office link for a staff session")
	}
}

func TestMoneyFunc(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}

	money := rn.funcMap["money"].(func(decimal.Decimal) string)
	tests := []struct {
		in   string
		want string
	}{
		{"12", "12.00 zł"},
		{"12.5", "12.50 zł"},
		{"0", "0.00 zł"},
		{"1999.99", "1999.99 zł"},
	}
	for _, tt := range tests {
		if got := money(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("money(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUUIDEqFunc(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error: %v", err)
	}

	uuidEq := rn.funcMap["uuidEq"].(func(*uuid.UUID, uuid.UUID) bool)
	id := uuid.New()
	if !uuidEq(&id, id) {
		t.Error("uuidEq(&id, id) = false, want true")
	}
	if uuidEq(nil, id) {
		t.Error("uuidEq(nil, id) = true, want false")
	}
	other := uuid.New()
	if uuidEq(&other, id) {
		t.Error("uuidEq(&other, id) = true, want false")
	}
}
