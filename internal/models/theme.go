package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// hexColor matches a CSS hex color like "#ff0000".
var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Theme is a named color scheme users can pick for the storefront.
type Theme struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color1    string    `json:"color1"`
	Color2    string    `json:"color2"`
	Color3    string    `json:"color3"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid reports whether all three colors are well-formed hex values.
func (t *Theme) Valid() bool {
	return hexColor.MatchString(t.Color1) &&
		hexColor.MatchString(t.Color2) &&
		hexColor.MatchString(t.Color3)
}
