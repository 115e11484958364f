package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bimberek/internal/models"
	"bimberek/internal/oauth"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

// errNoProviderEmail marks a federated login whose provider shared no
// email address. Without one there is nothing to link or register.
var errNoProviderEmail = errors.New("no email from provider")

// OAuth handles federated login with Google and Facebook. A provider
// login either matches an existing federated account, links to a local
// account with the same email, or creates a fresh account.
type OAuth struct {
	sessions  *session.Store
	userStore *store.UserStore
	states    *oauth.StateStore
	providers map[string]*oauth.Provider
}

// NewOAuth creates the OAuth handler group. Providers with an empty
// client ID are left out of the map and their routes return 404.
func NewOAuth(sessions *session.Store, userStore *store.UserStore, states *oauth.StateStore, providers map[string]*oauth.Provider) *OAuth {
	return &OAuth{
		sessions:  sessions,
		userStore: userStore,
		states:    states,
		providers: providers,
	}
}

// Redirect sends the browser to the provider's consent screen with a
// single-use state nonce.
func (o *OAuth) Redirect(w http.ResponseWriter, r *http.Request) {
	provider, ok := o.providers[providerParam(r)]
	if !ok {
		http.NotFound(w, r)
		return
	}

	state, err := o.states.Issue(r.Context())
	if err != nil {
		slog.Error("oauth state issue failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, provider.AuthURL(state), http.StatusSeeOther)
}

// Callback completes the provider handshake and signs the user in.
func (o *OAuth) Callback(w http.ResponseWriter, r *http.Request) {
	provider, ok := o.providers[providerParam(r)]
	if !ok {
		http.NotFound(w, r)
		return
	}

	ok, err := o.states.Consume(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		slog.Error("oauth state check failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		session.AddFlash(w, r, "error", "Logowanie wygasło. Spróbuj ponownie.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// Provider denied or user cancelled.
		session.AddFlash(w, r, "error", "Logowanie zostało przerwane.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	info, err := provider.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth exchange failed", "provider", provider.Name, "error", err)
		session.AddFlash(w, r, "error", "Logowanie nie powiodło się.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := o.resolveUser(info)
	if err != nil {
		slog.Error("oauth user resolve failed", "provider", provider.Name, "error", err)
		msg := "Logowanie nie powiodło się. Spróbuj ponownie."
		if errors.Is(err, errNoProviderEmail) {
			msg = "Dostawca nie udostępnił adresu e-mail. Załóż konto z hasłem."
		}
		session.AddFlash(w, r, "error", msg)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if _, err := o.sessions.Create(r.Context(), w, sessionData(user)); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

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

// resolveUser finds or creates the account for a federated identity.
func (o *OAuth) resolveUser(info *oauth.UserInfo) (*models.User, error) {
	var user *models.User
	var err error

	switch info.Provider {
	case "google":
		user, err = o.userStore.FindByGoogleID(info.ProviderUserID)
	case "facebook":
		user, err = o.userStore.FindByFacebookID(info.ProviderUserID)
	default:
		return nil, fmt.Errorf("unknown provider %q", info.Provider)
	}
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	// Link to an existing account with the same verified email.
	if info.Email != "" {
		user, err = o.userStore.FindByEmail(strings.ToLower(info.Email))
		if err != nil {
			return nil, err
		}
		if user != nil {
			switch info.Provider {
			case "google":
				err = o.userStore.SetGoogleID(user.ID, info.ProviderUserID)
			case "facebook":
				err = o.userStore.SetFacebookID(user.ID, info.ProviderUserID)
			}
			if err != nil {
				return nil, err
			}
			return user, nil
		}
	}

	if info.Email == "" {
		return nil, fmt.Errorf("provider %s: %w", info.Provider, errNoProviderEmail)
	}

	handle, err := o.freeHandle(info)
	if err != nil {
		return nil, err
	}

	return o.userStore.CreateFederated(strings.ToLower(info.Email), handle, info.Provider, info.ProviderUserID)
}

// freeHandle derives an unused handle from the provider profile.
func (o *OAuth) freeHandle(info *oauth.UserInfo) (string, error) {
	base := handleFromName(info.Name)
	if base == "" {
		base = handleFromName(strings.SplitN(info.Email, "@", 2)[0])
	}
	if base == "" {
		base = "uzytkownik"
	}

	candidate := base
	for i := 2; ; i++ {
		taken, err := o.userStore.HandleExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// handleFromName strips a display name down to handle-safe characters.
func handleFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	h := strings.Trim(b.String(), "-")
	if len(h) > 30 {
		h = h[:30]
	}
	if len(h) < 3 {
		return ""
	}
	return h
}

func providerParam(r *http.Request) string {
	return chi.URLParam(r, "provider")
}
