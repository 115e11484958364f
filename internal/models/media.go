package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Media is an uploaded image used by sliders and the media library.
// The file itself lives in object storage under StorageKey.
type Media struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	StorageKey   string    `json:"storage_key"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Title        *string   `json:"title"`
	AltText      *string   `json:"alt_text"`
	UploaderID   uuid.UUID `json:"uploader_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// HumanSize returns the file size formatted for display (e.g. "1.2 MB").
func (m *Media) HumanSize() string {
	const unit = 1024
	if m.SizeBytes < unit {
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
	div, exp := int64(unit), 0
	for n := m.SizeBytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(m.SizeBytes)/float64(div), "KMG"[exp])
}
