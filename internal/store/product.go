// Package store contains the data access layer. Each aggregate gets its
// own store struct wrapping *sql.DB; lookups return (nil, nil) when the
// row does not exist.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bimberek/internal/models"
)

const productColumns = `id, name, slug, description_html, price, stock,
       category_id, image_key, created_at, updated_at`

// ProductStore handles all product-related database operations.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new ProductStore with the given database connection.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.DescriptionHTML, &p.Price, &p.Stock,
		&p.CategoryID, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID retrieves a product by its UUID. Returns nil if not found.
func (s *ProductStore) FindByID(id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a product by its slug. Returns nil if not found.
func (s *ProductStore) FindBySlug(slug string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by slug: %w", err)
	}
	return p, nil
}

// FindByIDs returns the products for the given ids, keyed by id.
// Missing ids are simply absent from the result; callers use that to
// detect products that were removed from the catalog.
func (s *ProductStore) FindByIDs(ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	result := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	textIDs := make([]string, len(ids))
	for i, id := range ids {
		textIDs[i] = id.String()
	}

	rows, err := s.db.Query(
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, textIDs)
	if err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

// ListNewest returns the most recently added products, for the homepage.
func (s *ProductStore) ListNewest(limit int) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list newest products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListByCategory returns a page of products in the given category,
// ordered by name. Page numbers start at 1.
func (s *ProductStore) ListByCategory(categoryID uuid.UUID, page, perPage int) ([]models.Product, int, error) {
	if page < 1 {
		page = 1
	}

	var total int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products by category: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+productColumns+`
		FROM products
		WHERE category_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, categoryID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list products by category: %w", err)
	}
	defer rows.Close()

	items, err := collectProducts(rows)
	return items, total, err
}

// ListSimilar returns up to limit other products from the same
// category, newest first, for the product page.
func (s *ProductStore) ListSimilar(categoryID, excludeID uuid.UUID, limit int) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+`
		FROM products
		WHERE category_id = $1 AND id <> $2
		ORDER BY created_at DESC
		LIMIT $3
	`, categoryID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list similar products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Search returns products whose name or description matches the query,
// ordered by name. Used by the storefront search box.
func (s *ProductStore) Search(query string, limit int) ([]models.Product, error) {
	rows, err := s.db.Query(`
		SELECT `+productColumns+`
		FROM products
		WHERE name ILIKE '%' || $1 || '%' OR description_html ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// List returns all products ordered by name, for the admin table.
func (s *ProductStore) List() ([]models.Product, error) {
	rows, err := s.db.Query(
		`SELECT ` + productColumns + ` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Create inserts a new product and returns it with the generated ID.
func (s *ProductStore) Create(p *models.Product) (*models.Product, error) {
	result, err := scanProduct(s.db.QueryRow(`
		INSERT INTO products (name, slug, description_html, price, stock, category_id, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		p.Name, p.Slug, p.DescriptionHTML, p.Price, p.Stock, p.CategoryID, p.ImageKey,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return result, nil
}

// Update modifies an existing product.
func (s *ProductStore) Update(p *models.Product) error {
	_, err := s.db.Exec(`
		UPDATE products SET
			name = $1, slug = $2, description_html = $3, price = $4,
			stock = $5, category_id = $6, image_key = $7, updated_at = NOW()
		WHERE id = $8
	`, p.Name, p.Slug, p.DescriptionHTML, p.Price, p.Stock, p.CategoryID, p.ImageKey, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product by ID.
func (s *ProductStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var items []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}
