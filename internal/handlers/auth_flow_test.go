// auth_flow_test.go contains handler integration tests for registration,
// login and the staff 2FA flow. Tests exercise real database and Valkey
// connections; they are skipped when those services are unavailable.
package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"bimberek/internal/models"
	"bimberek/internal/session"
)

// postForm builds a form POST request for handler tests.
func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// hasFlashCookie reports whether the response queued a flash message.
func hasFlashCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "bb_flash" && c.Value != "" {
			return true
		}
	}
	return false
}

// hasSessionCookie reports whether the response set a session cookie.
func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return true
		}
	}
	return false
}

func TestLoginPage_ReturnsHTML(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

func TestLoginPage_AuthenticatedRedirectsHome(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(uuid.New(), "kasia", "user", false)
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
}

func TestRegisterSubmit_CreatesAccountAndLogsIn(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "nowy-klient@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "nowy-klient@example.com") })

	form := url.Values{}
	form.Set("email", "nowy-klient@example.com")
	form.Set("handle", "nowy-klient")
	form.Set("password", "tajnehaslo123")

	rec := httptest.NewRecorder()
	env.Auth.RegisterSubmit(rec, postForm("/register", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
	if !hasSessionCookie(rec) {
		t.Error("expected session cookie after registration")
	}

	user, err := env.UserStore.FindByEmail("nowy-klient@example.com")
	if err != nil {
		t.Fatalf("find created user: %v", err)
	}
	if user == nil {
		t.Fatal("user was not created")
	}
	if user.Role != models.RoleUser {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleUser)
	}
}

func TestRegisterSubmit_RejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("email", "krotkie@example.com")
	form.Set("handle", "krotkie")
	form.Set("password", "krotkie")

	rec := httptest.NewRecorder()
	env.Auth.RegisterSubmit(rec, postForm("/register", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash to be queued")
	}
	if hasSessionCookie(rec) {
		t.Error("no session should be created for a rejected registration")
	}
}

func TestRegisterSubmit_RejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "zajety@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "zajety@example.com") })

	if _, err := env.UserStore.Create("zajety@example.com", "zajety", "tajnehaslo123", models.RoleUser); err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("email", "zajety@example.com")
	form.Set("handle", "inny-handle")
	form.Set("password", "tajnehaslo123")

	rec := httptest.NewRecorder()
	env.Auth.RegisterSubmit(rec, postForm("/register", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if hasSessionCookie(rec) {
		t.Error("no session should be created for a duplicate email")
	}
}

func TestLoginSubmit_CustomerByEmail(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "klientka@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "klientka@example.com") })

	if _, err := env.UserStore.Create("klientka@example.com", "klientka", "tajnehaslo123", models.RoleUser); err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("login", "klientka@example.com")
	form.Set("password", "tajnehaslo123")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
	if !hasSessionCookie(rec) {
		t.Error("expected session cookie after login")
	}
}

func TestLoginSubmit_CustomerByHandle(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "pseudonim@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "pseudonim@example.com") })

	if _, err := env.UserStore.Create("pseudonim@example.com", "pseudonim", "tajnehaslo123", models.RoleUser); err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("login", "pseudonim")
	form.Set("password", "tajnehaslo123")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
}

func TestLoginSubmit_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "pomylka@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "pomylka@example.com") })

	if _, err := env.UserStore.Create("pomylka@example.com", "pomylka", "tajnehaslo123", models.RoleUser); err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("login", "pomylka@example.com")
	form.Set("password", "zlehaslo")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render login)", rec.Code, http.StatusOK)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash to be queued")
	}
	if hasSessionCookie(rec) {
		t.Error("no session should be created for a wrong password")
	}
}

func TestLoginSubmit_UnknownLogin(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("login", "nie-istnieje@example.com")
	form.Set("password", "cokolwiek")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render login)", rec.Code, http.StatusOK)
	}
	if hasSessionCookie(rec) {
		t.Error("no session should be created for an unknown login")
	}
}

func TestLoginSubmit_StaffRoutedTo2FASetup(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "moderatorka@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "moderatorka@example.com") })

	if _, err := env.UserStore.Create("moderatorka@example.com", "moderatorka", "tajnehaslo123", models.RoleModerator); err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{}
	form.Set("login", "moderatorka@example.com")
	form.Set("password", "tajnehaslo123")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/setup" {
		t.Errorf("Location: got %q, want /admin/2fa/setup", loc)
	}
}

func TestLoginSubmit_EnrolledStaffRoutedTo2FAVerify(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "szefowa@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "szefowa@example.com") })

	user, err := env.UserStore.Create("szefowa@example.com", "szefowa", "tajnehaslo123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := env.UserStore.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	form := url.Values{}
	form.Set("login", "szefowa@example.com")
	form.Set("password", "tajnehaslo123")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/verify" {
		t.Errorf("Location: got %q, want /admin/2fa/verify", loc)
	}
}

func TestTwoFASetupPage_NoSessionRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location: got %q, want /login", loc)
	}
}

func TestTwoFASetupPage_ShowsQRCode(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "swiezy-admin@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "swiezy-admin@example.com") })

	user, err := env.UserStore.Create("swiezy-admin@example.com", "swiezy-admin", "tajnehaslo123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess := testSession(user.ID, user.Handle, string(user.Role), false)
	sess.Email = user.Email
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Error("expected QR code data in the 2FA setup page response")
	}

	// The generated secret must be persisted for the later code check.
	reloaded, err := env.UserStore.FindByID(user.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.TOTPSecret == nil || *reloaded.TOTPSecret == "" {
		t.Error("expected TOTP secret to be stored")
	}
}

func TestTwoFAVerifySubmit_NoSecretRedirectsToSetup(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "bez-sekretu@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "bez-sekretu@example.com") })

	user, err := env.UserStore.Create("bez-sekretu@example.com", "bez-sekretu", "tajnehaslo123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess := testSession(user.ID, user.Handle, string(user.Role), false)

	form := url.Values{}
	form.Set("code", "123456")

	req := postForm("/admin/2fa/verify", form)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifySubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/setup" {
		t.Errorf("Location: got %q, want /admin/2fa/setup", loc)
	}
}

func TestTwoFAVerifySubmit_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	cleanUsers(t, env.DB, "zly-kod@example.com")
	t.Cleanup(func() { cleanUsers(t, env.DB, "zly-kod@example.com") })

	user, err := env.UserStore.Create("zly-kod@example.com", "zly-kod", "tajnehaslo123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := env.UserStore.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	sess := testSession(user.ID, user.Handle, string(user.Role), false)

	form := url.Values{}
	form.Set("code", "000000")

	req := postForm("/admin/2fa/verify", form)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifySubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/verify" {
		t.Errorf("Location: got %q, want /admin/2fa/verify", loc)
	}
	if !hasFlashCookie(rec) {
		t.Error("expected an error flash to be queued")
	}
}

func TestLogout_RedirectsHome(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()

	env.Auth.Logout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
}
