package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

// ThemeStore handles color theme database operations.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore creates a new ThemeStore with the given database connection.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

// List returns all themes ordered by name.
func (s *ThemeStore) List() ([]models.Theme, error) {
	rows, err := s.db.Query(`
		SELECT id, name, color1, color2, color3, created_at, updated_at
		FROM themes ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var themes []models.Theme
	for rows.Next() {
		var t models.Theme
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Color1, &t.Color2, &t.Color3,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// FindByID retrieves a theme by its UUID. Returns nil if not found.
func (s *ThemeStore) FindByID(id uuid.UUID) (*models.Theme, error) {
	t := &models.Theme{}
	err := s.db.QueryRow(`
		SELECT id, name, color1, color2, color3, created_at, updated_at
		FROM themes WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Name, &t.Color1, &t.Color2, &t.Color3,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by id: %w", err)
	}
	return t, nil
}

// Create inserts a new theme and returns it with the generated ID.
func (s *ThemeStore) Create(t *models.Theme) (*models.Theme, error) {
	result := &models.Theme{}
	err := s.db.QueryRow(`
		INSERT INTO themes (name, color1, color2, color3)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, color1, color2, color3, created_at, updated_at
	`, t.Name, t.Color1, t.Color2, t.Color3).Scan(
		&result.ID, &result.Name, &result.Color1, &result.Color2, &result.Color3,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create theme: %w", err)
	}
	return result, nil
}

// Update modifies an existing theme.
func (s *ThemeStore) Update(t *models.Theme) error {
	_, err := s.db.Exec(`
		UPDATE themes SET name = $1, color1 = $2, color2 = $3, color3 = $4, updated_at = NOW()
		WHERE id = $5
	`, t.Name, t.Color1, t.Color2, t.Color3, t.ID)
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	return nil
}

// Delete removes a theme. Users referencing it fall back to the default
// theme via the ON DELETE SET NULL foreign key.
func (s *ThemeStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM themes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete theme: %w", err)
	}
	return nil
}
