package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

const mediaColumns = `id, original_name, storage_key, content_type, size_bytes,
       width, height, title, alt_text, uploader_id, created_at`

// MediaStore handles media library database operations. The files
// themselves live in object storage; rows here carry the metadata.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

func scanMedia(row interface{ Scan(...any) error }) (*models.Media, error) {
	m := &models.Media{}
	err := row.Scan(
		&m.ID, &m.OriginalName, &m.StorageKey, &m.ContentType, &m.SizeBytes,
		&m.Width, &m.Height, &m.Title, &m.AltText, &m.UploaderID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List returns all media ordered by upload date descending.
func (s *MediaStore) List() ([]models.Media, error) {
	rows, err := s.db.Query(
		`SELECT ` + mediaColumns + ` FROM media ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// FindByID retrieves a media row by its UUID. Returns nil if not found.
func (s *MediaStore) FindByID(id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRow(
		`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return m, nil
}

// Create inserts a media row and returns it with the generated ID.
func (s *MediaStore) Create(m *models.Media) (*models.Media, error) {
	result, err := scanMedia(s.db.QueryRow(`
		INSERT INTO media (original_name, storage_key, content_type, size_bytes,
		                   width, height, title, alt_text, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+mediaColumns,
		m.OriginalName, m.StorageKey, m.ContentType, m.SizeBytes,
		m.Width, m.Height, m.Title, m.AltText, m.UploaderID,
	))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return result, nil
}

// UpdateMeta changes the editable metadata (title, alt text).
func (s *MediaStore) UpdateMeta(id uuid.UUID, title, altText *string) error {
	_, err := s.db.Exec(`
		UPDATE media SET title = $1, alt_text = $2 WHERE id = $3
	`, title, altText, id)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	return nil
}

// Delete removes a media row. Slider items referencing it are removed
// by the ON DELETE CASCADE foreign key; the object storage cleanup is
// the caller's job.
func (s *MediaStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM media WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
