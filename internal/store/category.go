package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

// ErrCategoryCycle is returned when a parent change would make a
// category its own ancestor.
var ErrCategoryCycle = fmt.Errorf("category cycle")

// CategoryStore handles category database operations.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore with the given database connection.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories ordered by name, with product counts.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.parent_id, c.created_at, c.updated_at,
		       COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.ParentID,
			&c.CreatedAt, &c.UpdatedAt, &c.ProductCount,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Tree returns the root categories with their children attached,
// recursively, built from a single List query.
func (s *CategoryStore) Tree() ([]models.Category, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	var attach func(c *models.Category, depth int)
	attach = func(c *models.Category, depth int) {
		c.Depth = depth
		c.Children = byParent[c.ID]
		for i := range c.Children {
			attach(&c.Children[i], depth+1)
		}
	}
	for i := range roots {
		attach(&roots[i], 0)
	}
	return roots, nil
}

// FindByID retrieves a category by its UUID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRow(`
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by its slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(slug string) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRow(`
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM categories WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it with the generated ID.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	result := &models.Category{}
	err := s.db.QueryRow(`
		INSERT INTO categories (name, slug, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, parent_id, created_at, updated_at
	`, c.Name, c.Slug, c.ParentID).Scan(
		&result.ID, &result.Name, &result.Slug, &result.ParentID,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category. Changing the parent is rejected
// with ErrCategoryCycle if the new parent is the category itself or one
// of its descendants.
func (s *CategoryStore) Update(c *models.Category) error {
	if c.ParentID != nil {
		ok, err := s.wouldCycle(c.ID, *c.ParentID)
		if err != nil {
			return err
		}
		if ok {
			return ErrCategoryCycle
		}
	}

	_, err := s.db.Exec(`
		UPDATE categories SET name = $1, slug = $2, parent_id = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, c.Slug, c.ParentID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category. Child categories and products referencing
// it are detached via ON DELETE SET NULL.
func (s *CategoryStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// wouldCycle walks up from the proposed parent; if the walk reaches the
// category being updated, the assignment would create a cycle.
func (s *CategoryStore) wouldCycle(id, parentID uuid.UUID) (bool, error) {
	current := parentID
	for {
		if current == id {
			return true, nil
		}
		var next *uuid.UUID
		err := s.db.QueryRow(
			`SELECT parent_id FROM categories WHERE id = $1`, current,
		).Scan(&next)
		if err == sql.ErrNoRows || (err == nil && next == nil) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("check category cycle: %w", err)
		}
		current = *next
	}
}
