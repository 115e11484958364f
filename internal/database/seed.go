package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed inserts development fixtures: an admin account, a default theme,
// a few categories and products, and an active homepage slider.
// It is a no-op if any user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed hash: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var themeID string
	if err := tx.QueryRow(`
		INSERT INTO themes (name, color1, color2, color3)
		VALUES ('Klasyczny', '#1f2937', '#f59e0b', '#f9fafb')
		RETURNING id
	`).Scan(&themeID); err != nil {
		return fmt.Errorf("seed theme: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO users (email, handle, password_hash, role, theme_id)
		VALUES ('admin@bimberek.local', 'admin', $1, 'admin', $2)
	`, string(hash), themeID); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	var catID string
	if err := tx.QueryRow(`
		INSERT INTO categories (name, slug) VALUES ('Gorzelnictwo', 'gorzelnictwo')
		RETURNING id
	`).Scan(&catID); err != nil {
		return fmt.Errorf("seed category: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO categories (name, slug, parent_id)
		VALUES ('Drożdże', 'drozdze', $1)
	`, catID); err != nil {
		return fmt.Errorf("seed subcategory: %w", err)
	}

	var prodID string
	if err := tx.QueryRow(`
		INSERT INTO products (name, slug, description_html, price, stock, category_id)
		VALUES ('Drożdże gorzelnicze Turbo', 'drozdze-gorzelnicze-turbo',
		        '<p>Szybka fermentacja do 14 dni.</p>', 24.90, 120, $1)
		RETURNING id
	`, catID).Scan(&prodID); err != nil {
		return fmt.Errorf("seed product: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO products (name, slug, description_html, price, stock, category_id)
		VALUES ('Alembik miedziany 3L', 'alembik-miedziany-3l',
		        '<p>Tradycyjny alembik z Portugalii.</p>', 549.00, 4, $1)
	`, catID); err != nil {
		return fmt.Errorf("seed product: %w", err)
	}

	var sliderID string
	if err := tx.QueryRow(`
		INSERT INTO sliders (name, is_active) VALUES ('Strona główna', TRUE)
		RETURNING id
	`).Scan(&sliderID); err != nil {
		return fmt.Errorf("seed slider: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO slider_items (slider_id, product_id, order_index, caption)
		VALUES ($1, $2, 0, 'Nowość w sklepie')
	`, sliderID, prodID); err != nil {
		return fmt.Errorf("seed slider item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("development data seeded", "admin", "admin@bimberek.local")
	return nil
}
