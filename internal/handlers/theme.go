package handlers

import (
	"log/slog"
	"net/http"

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/store"
)

// themeFor resolves the theme chosen in the current session, nil when
// the visitor is anonymous or uses the default styling.
func themeFor(r *http.Request, themes *store.ThemeStore) *models.Theme {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.ThemeID == nil {
		return nil
	}
	theme, err := themes.FindByID(*sess.ThemeID)
	if err != nil {
		slog.Error("theme lookup failed", "error", err)
		return nil
	}
	return theme
}
