// Package handlers contains all HTTP handlers for the storefront and
// the back-office, grouped by concern.
package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/render"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

// Auth groups registration, login and staff 2FA handlers.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		userStore: userStore,
	}
}

// sessionData builds a session payload for a user. Customers are done
// authenticating at this point; staff still owe a 2FA code.
func sessionData(u *models.User) *session.Data {
	return &session.Data{
		UserID:    u.ID,
		Email:     u.Email,
		Handle:    u.Handle,
		Role:      string(u.Role),
		ThemeID:   u.ThemeID,
		TwoFADone: false,
	}
}

// RegisterPage renders the registration form.
func (a *Auth) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "register", &render.PageData{
		Title: "Rejestracja",
		Data:  map[string]any{"Email": "", "Handle": ""},
	})
}

// RegisterSubmit creates a local account and logs the user in.
func (a *Auth) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	handle := strings.TrimSpace(r.FormValue("handle"))
	password := r.FormValue("password")

	retry := func(msg string) {
		session.AddFlash(w, r, "error", msg)
		a.renderer.Page(w, r, "register", &render.PageData{
			Title: "Rejestracja",
			Data:  map[string]any{"Email": email, "Handle": handle},
		})
	}

	if err := validEmail(email); err != nil {
		retry("Podaj poprawny adres e-mail.")
		return
	}
	if err := validHandle(handle); err != nil {
		retry("Nazwa użytkownika: 3-30 znaków, litery, cyfry, myślnik i podkreślenie.")
		return
	}
	if len(password) < 8 {
		retry("Hasło musi mieć co najmniej 8 znaków.")
		return
	}

	if existing, err := a.userStore.FindByEmail(email); err != nil {
		slog.Error("register email lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	} else if existing != nil {
		retry("Konto z tym adresem e-mail już istnieje.")
		return
	}
	if taken, err := a.userStore.HandleExists(handle); err != nil {
		slog.Error("register handle lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	} else if taken {
		retry("Ta nazwa użytkownika jest zajęta.")
		return
	}

	user, err := a.userStore.Create(email, handle, password, models.RoleUser)
	if err != nil {
		slog.Error("register create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, sessionData(user)); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Konto założone. Witaj!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "login", &render.PageData{Title: "Logowanie"})
}

// LoginSubmit processes the login form. The login field accepts either
// an email address or a handle.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.FormValue("login"))
	password := r.FormValue("password")

	user, err := a.userStore.FindByLogin(login)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		session.AddFlash(w, r, "error", "Nieprawidłowy login lub hasło.")
		a.renderer.Page(w, r, "login", &render.PageData{Title: "Logowanie"})
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, sessionData(user)); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Staff accounts go through 2FA before reaching the back-office.
	if user.IsStaff() {
		if user.Needs2FASetup() {
			http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		} else {
			http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		}
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TwoFASetupPage generates a TOTP secret for a staff user and shows the
// enrollment QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Bimberek",
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Konfiguracja 2FA",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
		},
	})
}

// TwoFASetupSubmit validates the first code against the freshly stored
// secret and enables 2FA for the account.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	a.verifyCode(w, r, true)
}

// TwoFAVerifyPage renders the code entry form for enrolled staff.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{Title: "Weryfikacja 2FA"})
}

// TwoFAVerifySubmit validates the TOTP code for an enrolled account.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	a.verifyCode(w, r, false)
}

func (a *Auth) verifyCode(w http.ResponseWriter, r *http.Request, enrolling bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		session.AddFlash(w, r, "error", "Nieprawidłowy kod. Spróbuj ponownie.")
		if enrolling {
			// Re-render the setup page with the same secret so the
			// already scanned QR code stays valid.
			otpURL := "otpauth://totp/Bimberek:" + url.PathEscape(user.Email) +
				"?secret=" + *user.TOTPSecret + "&issuer=Bimberek"
			qrPNG, _ := qrcode.Encode(otpURL, qrcode.Medium, 256)
			a.renderer.Page(w, r, "2fa_setup", &render.PageData{
				Title: "Konfiguracja 2FA",
				Data: map[string]any{
					"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
					"Secret": *user.TOTPSecret,
				},
			})
		} else {
			http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		}
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
