package models

import (
	"time"

	"github.com/google/uuid"
)

// Slider is a named, ordered collection of homepage tiles.
// At most one slider is active at a time.
type Slider struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Items ordered by OrderIndex, populated by store methods.
	Items []SliderItem `json:"items,omitempty"`
}

// SliderItem references either a product or a media asset, never both.
// OrderIndex is unique within a slider.
type SliderItem struct {
	ID         uuid.UUID  `json:"id"`
	SliderID   uuid.UUID  `json:"slider_id"`
	ProductID  *uuid.UUID `json:"product_id"`
	MediaID    *uuid.UUID `json:"media_id"`
	OrderIndex int        `json:"order_index"`
	Caption    *string    `json:"caption"`
	CreatedAt  time.Time  `json:"created_at"`

	// Virtual fields for rendering, populated by store methods.
	Product *Product `json:"product,omitempty"`
	Media   *Media   `json:"media,omitempty"`
}
