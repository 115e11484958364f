package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

// SliderStore handles slider and slider item database operations.
type SliderStore struct {
	db *sql.DB
}

// NewSliderStore creates a new SliderStore with the given database connection.
func NewSliderStore(db *sql.DB) *SliderStore {
	return &SliderStore{db: db}
}

// List returns all sliders ordered by name, without items.
func (s *SliderStore) List() ([]models.Slider, error) {
	rows, err := s.db.Query(`
		SELECT id, name, is_active, created_at, updated_at
		FROM sliders ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list sliders: %w", err)
	}
	defer rows.Close()

	var sliders []models.Slider
	for rows.Next() {
		var sl models.Slider
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.IsActive, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan slider: %w", err)
		}
		sliders = append(sliders, sl)
	}
	return sliders, rows.Err()
}

// FindByID retrieves a slider with its items. Returns nil if not found.
func (s *SliderStore) FindByID(id uuid.UUID) (*models.Slider, error) {
	sl := &models.Slider{}
	err := s.db.QueryRow(`
		SELECT id, name, is_active, created_at, updated_at
		FROM sliders WHERE id = $1
	`, id).Scan(&sl.ID, &sl.Name, &sl.IsActive, &sl.CreatedAt, &sl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find slider by id: %w", err)
	}

	if err := s.loadItems(sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// FindActive returns the active slider with its items resolved for
// rendering, or nil when no slider is active.
func (s *SliderStore) FindActive() (*models.Slider, error) {
	sl := &models.Slider{}
	err := s.db.QueryRow(`
		SELECT id, name, is_active, created_at, updated_at
		FROM sliders WHERE is_active = TRUE
	`).Scan(&sl.ID, &sl.Name, &sl.IsActive, &sl.CreatedAt, &sl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active slider: %w", err)
	}

	if err := s.loadItems(sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// Create inserts a new, inactive slider.
func (s *SliderStore) Create(name string) (*models.Slider, error) {
	sl := &models.Slider{}
	err := s.db.QueryRow(`
		INSERT INTO sliders (name) VALUES ($1)
		RETURNING id, name, is_active, created_at, updated_at
	`, name).Scan(&sl.ID, &sl.Name, &sl.IsActive, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create slider: %w", err)
	}
	return sl, nil
}

// Rename changes a slider's name.
func (s *SliderStore) Rename(id uuid.UUID, name string) error {
	_, err := s.db.Exec(`
		UPDATE sliders SET name = $1, updated_at = NOW() WHERE id = $2
	`, name, id)
	if err != nil {
		return fmt.Errorf("rename slider: %w", err)
	}
	return nil
}

// Activate makes the given slider the active one. At most one slider is
// active, so the previous active slider is deactivated in the same
// transaction.
func (s *SliderStore) Activate(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("activate slider: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE sliders SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE
	`); err != nil {
		return fmt.Errorf("deactivate sliders: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE sliders SET is_active = TRUE, updated_at = NOW() WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("activate slider: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("activate slider: commit: %w", err)
	}
	return nil
}

// Deactivate turns the given slider off, leaving no active slider.
func (s *SliderStore) Deactivate(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE sliders SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate slider: %w", err)
	}
	return nil
}

// Delete removes a slider and, via cascade, its items.
func (s *SliderStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM sliders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete slider: %w", err)
	}
	return nil
}

// AddItem appends an item at the end of the slider. Exactly one of
// productID and mediaID must be set; the database CHECK rejects the rest.
func (s *SliderStore) AddItem(sliderID uuid.UUID, productID, mediaID *uuid.UUID, caption *string) (*models.SliderItem, error) {
	item := &models.SliderItem{}
	err := s.db.QueryRow(`
		INSERT INTO slider_items (slider_id, product_id, media_id, order_index, caption)
		VALUES ($1, $2, $3,
		        (SELECT COALESCE(MAX(order_index), -1) + 1 FROM slider_items WHERE slider_id = $1),
		        $4)
		RETURNING id, slider_id, product_id, media_id, order_index, caption, created_at
	`, sliderID, productID, mediaID, caption).Scan(
		&item.ID, &item.SliderID, &item.ProductID, &item.MediaID,
		&item.OrderIndex, &item.Caption, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add slider item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one item from a slider.
func (s *SliderStore) RemoveItem(itemID uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM slider_items WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("remove slider item: %w", err)
	}
	return nil
}

// Reorder rewrites the order of a slider's items to match the given id
// sequence. The unique (slider_id, order_index) constraint would clash
// during the rewrite, so indexes are first moved out of the way.
func (s *SliderStore) Reorder(sliderID uuid.UUID, itemIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("reorder slider: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE slider_items SET order_index = order_index + 10000 WHERE slider_id = $1
	`, sliderID); err != nil {
		return fmt.Errorf("reorder slider: shift: %w", err)
	}

	for i, itemID := range itemIDs {
		if _, err := tx.Exec(`
			UPDATE slider_items SET order_index = $1 WHERE id = $2 AND slider_id = $3
		`, i, itemID, sliderID); err != nil {
			return fmt.Errorf("reorder slider: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reorder slider: commit: %w", err)
	}
	return nil
}

// loadItems attaches the slider's items, ordered by position, with the
// referenced product or media resolved.
func (s *SliderStore) loadItems(sl *models.Slider) error {
	rows, err := s.db.Query(`
		SELECT i.id, i.slider_id, i.product_id, i.media_id, i.order_index, i.caption, i.created_at,
		       p.id, p.name, p.slug, p.price, p.image_key,
		       m.id, m.storage_key, m.title, m.alt_text
		FROM slider_items i
		LEFT JOIN products p ON p.id = i.product_id
		LEFT JOIN media m ON m.id = i.media_id
		WHERE i.slider_id = $1
		ORDER BY i.order_index
	`, sl.ID)
	if err != nil {
		return fmt.Errorf("load slider items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SliderItem
		var (
			pID       *uuid.UUID
			pName     *string
			pSlug     *string
			pPrice    sql.NullString
			pImageKey *string
			mID       *uuid.UUID
			mKey      *string
			mTitle    *string
			mAlt      *string
		)
		if err := rows.Scan(
			&item.ID, &item.SliderID, &item.ProductID, &item.MediaID,
			&item.OrderIndex, &item.Caption, &item.CreatedAt,
			&pID, &pName, &pSlug, &pPrice, &pImageKey,
			&mID, &mKey, &mTitle, &mAlt,
		); err != nil {
			return fmt.Errorf("scan slider item: %w", err)
		}

		if pID != nil {
			item.Product = &models.Product{ID: *pID, Name: *pName, Slug: *pSlug, ImageKey: pImageKey}
			if pPrice.Valid {
				if err := item.Product.Price.Scan(pPrice.String); err != nil {
					return fmt.Errorf("scan slider item price: %w", err)
				}
			}
		}
		if mID != nil {
			item.Media = &models.Media{ID: *mID, StorageKey: *mKey, Title: mTitle, AltText: mAlt}
		}
		sl.Items = append(sl.Items, item)
	}
	return rows.Err()
}
