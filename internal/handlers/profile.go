package handlers

import (
	"log/slog"
	"net/http"

	"bimberek/internal/middleware"
	"bimberek/internal/render"
	"bimberek/internal/session"
	"bimberek/internal/store"
)

// Profile groups the account page handlers: theme selection and the
// overview of the user's own blog posts.
type Profile struct {
	renderer   *render.Renderer
	sessions   *session.Store
	userStore  *store.UserStore
	themeStore *store.ThemeStore
	postStore  *store.PostStore
}

// NewProfile creates the Profile handler group.
func NewProfile(renderer *render.Renderer, sessions *session.Store, users *store.UserStore, themes *store.ThemeStore, posts *store.PostStore) *Profile {
	return &Profile{
		renderer:   renderer,
		sessions:   sessions,
		userStore:  users,
		themeStore: themes,
		postStore:  posts,
	}
}

// Page renders the account page.
func (p *Profile) Page(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	themes, err := p.themeStore.List()
	if err != nil {
		slog.Error("theme list failed", "error", err)
	}

	posts, err := p.postStore.ListByAuthor(sess.UserID)
	if err != nil {
		slog.Error("own posts failed", "error", err)
	}

	p.renderer.Page(w, r, "profile", &render.PageData{
		Title:   "Twoje konto",
		Section: "profile",
		Data: map[string]any{
			"Themes": themes,
			"Posts":  posts,
			"Theme":  themeFor(r, p.themeStore),
		},
	})
}

// SetTheme stores the user's theme choice and refreshes the session so
// the next page load picks it up.
func (p *Profile) SetTheme(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	themeID, err := formUUIDPtr(r, "theme_id")
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if themeID != nil {
		theme, err := p.themeStore.FindByID(*themeID)
		if err != nil {
			slog.Error("theme lookup failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if theme == nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
	}

	if err := p.userStore.SetTheme(sess.UserID, themeID); err != nil {
		slog.Error("set theme failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess.ThemeID = themeID
	if err := p.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
	}

	session.AddFlash(w, r, "success", "Motyw zapisany.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
