package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item. Price is fixed-point currency (NUMERIC(10,2)
// in the database); Stock is the number of units available.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	DescriptionHTML string          `json:"description_html"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	ImageKey        *string         `json:"image_key"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// InStock reports whether any units are available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// PriceMinorUnits returns the price in minor currency units (grosze),
// as required by the payment gateway.
func (p *Product) PriceMinorUnits() int64 {
	return p.Price.Mul(decimal.NewFromInt(100)).IntPart()
}
