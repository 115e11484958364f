package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the lifecycle of a moderation ticket.
type ReportStatus string

const (
	ReportOpen   ReportStatus = "open"
	ReportClosed ReportStatus = "closed"
)

// Report is a moderation ticket raised against a comment or a post
// (never both). Moderators discuss it in a thread of messages and
// eventually close it.
type Report struct {
	ID         uuid.UUID    `json:"id"`
	CommentID  *uuid.UUID   `json:"comment_id"`
	PostID     *uuid.UUID   `json:"post_id"`
	ReporterID uuid.UUID    `json:"reporter_id"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`

	ReporterHandle string `json:"reporter_handle,omitempty"`
}

// ModeratorMessage is one entry in a report's discussion thread.
type ModeratorMessage struct {
	ID        uuid.UUID `json:"id"`
	ReportID  uuid.UUID `json:"report_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	SenderHandle string `json:"sender_handle,omitempty"`
}
