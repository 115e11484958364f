package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductInStock(t *testing.T) {
	tests := []struct {
		stock int
		want  bool
	}{
		{10, true},
		{1, true},
		{0, false},
		{-1, false},
	}

	for _, tt := range tests {
		p := &Product{Stock: tt.stock}
		if got := p.InStock(); got != tt.want {
			t.Errorf("InStock() with stock %d = %v, want %v", tt.stock, got, tt.want)
		}
	}
}

func TestPriceMinorUnits(t *testing.T) {
	tests := []struct {
		price string
		want  int64
	}{
		{"49.99", 4999},
		{"12.00", 1200},
		{"0.01", 1},
		{"0", 0},
	}

	for _, tt := range tests {
		p := &Product{Price: decimal.RequireFromString(tt.price)}
		if got := p.PriceMinorUnits(); got != tt.want {
			t.Errorf("PriceMinorUnits() for %s = %d, want %d", tt.price, got, tt.want)
		}
	}
}
