package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationStatus is the tri-state lifecycle applied to user-generated
// content. Approved and rejected are terminal.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Post is a blog entry. Posts submitted by non-staff users start pending
// and only appear publicly once approved.
type Post struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	BodyHTML  string           `json:"body_html"`
	Status    ModerationStatus `json:"status"`
	AuthorID  *uuid.UUID       `json:"author_id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// AuthorHandle is populated by store queries that join users.
	AuthorHandle string `json:"author_handle,omitempty"`
}
