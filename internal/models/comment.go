package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment attaches to either a product or a post, never both (enforced
// by a database CHECK constraint). New comments start pending.
type Comment struct {
	ID        uuid.UUID        `json:"id"`
	Content   string           `json:"content"`
	Status    ModerationStatus `json:"status"`
	UserID    uuid.UUID        `json:"user_id"`
	ProductID *uuid.UUID       `json:"product_id"`
	PostID    *uuid.UUID       `json:"post_id"`
	CreatedAt time.Time        `json:"created_at"`

	// Virtual fields populated by store queries.
	UserHandle string `json:"user_handle,omitempty"`
	Score      int    `json:"score"` // sum of vote values
}

// CommentVote is a +1/-1 vote; one per user per comment, re-voting
// replaces the previous value.
type CommentVote struct {
	ID        uuid.UUID `json:"id"`
	CommentID uuid.UUID `json:"comment_id"`
	UserID    uuid.UUID `json:"user_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
