// Package cart implements the session shopping cart: a per-visitor
// mapping from product to a quantity/price/name snapshot, stored as JSON
// in Valkey and identified by a cookie.
//
// Two wire formats exist. Version 2 is the current record format; the
// legacy version 1 payload (a bare product→quantity map inherited from
// the previous storefront) is upgraded once when loaded, at the storage
// boundary. On every load the cart is reconciled against the product
// catalog: name and price always come from the authoritative product
// row, never from the stored snapshot.
package cart

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bimberek/internal/models"
)

// CurrentVersion is the cart wire format written by this application.
const CurrentVersion = 2

// Item is one cart line. Name and Price mirror the product row at the
// time of the last load; Quantity is the only field the visitor controls.
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart is the versioned session cart record.
type Cart struct {
	Version int             `json:"version"`
	Items   map[string]Item `json:"items"`
}

// New returns an empty cart in the current format.
func New() *Cart {
	return &Cart{Version: CurrentVersion, Items: make(map[string]Item)}
}

// Add increases the quantity for a product by delta. Deltas below one
// are treated as one, so a bare "add to cart" click always adds a unit.
// Add is cumulative: adding q1 then q2 equals adding q1+q2 once.
func (c *Cart) Add(p *models.Product, delta int) {
	if delta < 1 {
		delta = 1
	}
	key := p.ID.String()
	item, ok := c.Items[key]
	if !ok {
		item = Item{ProductID: p.ID, Name: p.Name, Price: p.Price}
	}
	item.Quantity += delta
	c.Items[key] = item
}

// Set replaces the quantity for a product. Quantities of zero or less
// remove the entry; zero-quantity lines are never retained.
func (c *Cart) Set(p *models.Product, qty int) {
	if qty <= 0 {
		delete(c.Items, p.ID.String())
		return
	}
	c.Items[p.ID.String()] = Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
	}
}

// Remove deletes the entry for a product, if present.
func (c *Cart) Remove(productID uuid.UUID) {
	delete(c.Items, productID.String())
}

// Clear removes all entries.
func (c *Cart) Clear() {
	c.Items = make(map[string]Item)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Totals returns the cart total (sum of price × quantity) and the total
// unit count over all lines with quantity > 0.
func (c *Cart) Totals() (decimal.Decimal, int) {
	total := decimal.Zero
	units := 0
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			continue
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		units += item.Quantity
	}
	return total, units
}

// ProductIDs returns the ids of all cart lines, sorted for stable output.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Lines returns the cart items sorted by product name for rendering.
func (c *Cart) Lines() []Item {
	lines := make([]Item, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, item)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}

// Normalize reconciles the cart against the product catalog. Entries for
// products no longer in the catalog are dropped, as are entries with
// quantity ≤ 0; name and price are refreshed from the product row.
// Returns true if anything changed.
func (c *Cart) Normalize(products map[uuid.UUID]*models.Product) bool {
	changed := false
	for key, item := range c.Items {
		p, ok := products[item.ProductID]
		if !ok || item.Quantity <= 0 {
			delete(c.Items, key)
			changed = true
			continue
		}
		if item.Name != p.Name || !item.Price.Equal(p.Price) {
			item.Name = p.Name
			item.Price = p.Price
			c.Items[key] = item
			changed = true
		}
	}
	if c.Version != CurrentVersion {
		c.Version = CurrentVersion
		changed = true
	}
	return changed
}

// Decode parses a stored cart payload, accepting both wire formats.
// A legacy v1 payload (product id → quantity) is upgraded to v2 records
// with empty name/price; the caller must Normalize against the catalog
// before use. Returns true if the payload was in the legacy format.
func Decode(payload []byte) (*Cart, bool, error) {
	var c Cart
	if err := json.Unmarshal(payload, &c); err == nil && c.Version >= CurrentVersion {
		if c.Items == nil {
			c.Items = make(map[string]Item)
		}
		return &c, false, nil
	}

	// Legacy v1: a bare map of product id → quantity.
	var legacy map[string]int
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return nil, false, fmt.Errorf("decode cart: %w", err)
	}

	upgraded := New()
	for key, qty := range legacy {
		id, err := uuid.Parse(key)
		if err != nil || qty <= 0 {
			continue // unparseable or empty legacy entries are dropped
		}
		upgraded.Items[key] = Item{ProductID: id, Quantity: qty}
	}
	return upgraded, true, nil
}

// Encode serializes the cart in the current wire format.
func (c *Cart) Encode() ([]byte, error) {
	c.Version = CurrentVersion
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return payload, nil
}
