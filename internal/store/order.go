package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"bimberek/internal/cart"
	"bimberek/internal/models"
)

// OrderStore handles order and order item database operations.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore creates a new OrderStore with the given database connection.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// CreateFromCart creates an order and its item rows from the cart in a
// single transaction. Each distinct product with quantity > 0 becomes
// one item row, snapshotting the product name and unit price at this
// moment. Zero-quantity lines are skipped.
func (s *OrderStore) CreateFromCart(userID uuid.UUID, shippingAddress string, c *cart.Cart) (*models.Order, error) {
	lines := c.Lines()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create order: begin: %w", err)
	}
	defer tx.Rollback()

	order := &models.Order{}
	err = tx.QueryRow(`
		INSERT INTO orders (user_id, status, shipping_address)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, status, shipping_address, created_at, updated_at
	`, userID, models.OrderPending, shippingAddress).Scan(
		&order.ID, &order.UserID, &order.Status,
		&order.ShippingAddress, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, line.ProductID, line.Name, line.Quantity, line.Price)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		order.Items = append(order.Items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
		})
	}

	if len(order.Items) == 0 {
		return nil, fmt.Errorf("create order: cart is empty")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create order: commit: %w", err)
	}
	return order, nil
}

// FindByID retrieves an order with its items. Returns nil if not found.
func (s *OrderStore) FindByID(id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	err := s.db.QueryRow(`
		SELECT id, user_id, status, shipping_address, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(
		&order.ID, &order.UserID, &order.Status,
		&order.ShippingAddress, &order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}

	if err := s.loadItems(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns all orders for a user, newest first, with items.
func (s *OrderStore) ListByUser(userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, status, shipping_address, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status,
			&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadItems(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// List returns all orders, newest first, for the back-office. Items are
// not loaded; the admin list only shows order-level fields.
func (s *OrderStore) List() ([]models.Order, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, status, shipping_address, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status,
			&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// MarkPaid transitions an order to paid and reports whether this call
// performed the transition. An order already paid is left untouched and
// false is returned, which makes webhook delivery retries harmless.
func (s *OrderStore) MarkPaid(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`, models.OrderPaid, id)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return n > 0, nil
}

// Demote moves a payable order into status and reports whether the
// transition happened. Paid and cancelled orders are never demoted, so
// a gateway event racing a completed payment cannot undo it.
func (s *OrderStore) Demote(id uuid.UUID, status models.OrderStatus) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
	`, status, id, models.OrderPending, models.OrderPaymentFailed)
	if err != nil {
		return false, fmt.Errorf("demote order: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("demote order: %w", err)
	}
	return n > 0, nil
}

// SetStatus updates the order status unconditionally. Reserved for the
// back-office status override; lifecycle transitions go through
// MarkPaid and Demote.
func (s *OrderStore) SetStatus(id uuid.UUID, status models.OrderStatus) error {
	_, err := s.db.Exec(`
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	return nil
}

func (s *OrderStore) loadItems(order *models.Order) error {
	rows, err := s.db.Query(`
		SELECT order_id, product_id, name, quantity, unit_price
		FROM order_items WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sort.Slice(order.Items, func(i, j int) bool {
		return order.Items[i].Name < order.Items[j].Name
	})
	return nil
}
