package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleRe limits handles to URL-safe characters.
var handleRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// validEmail checks that the address parses per RFC 5322.
func validEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	return nil
}

// validHandle checks handle length and character set.
func validHandle(handle string) error {
	if !handleRe.MatchString(handle) {
		return fmt.Errorf("invalid handle %q", handle)
	}
	return nil
}

// urlUUID extracts and parses a UUID route parameter.
func urlUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// formUUIDPtr parses an optional UUID form field. An empty value yields nil.
func formUUIDPtr(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &id, nil
}

// formStrPtr returns a pointer to a form value, nil when empty.
func formStrPtr(r *http.Request, name string) *string {
	v := r.FormValue(name)
	if v == "" {
		return nil
	}
	return &v
}

// queryPage parses the "page" query parameter, defaulting to 1.
func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
