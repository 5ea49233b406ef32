package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInsufficientStock is returned when a stock decrement would drop a
// product's stock below zero. The store performs no mutation in that case.
var ErrInsufficientStock = errors.New("insufficient stock")

// Product is a catalog item available for purchase. Stock is the only field
// that changes after seeding; it is decremented by order and replacement
// creation and never goes negative.
type Product struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Image       string
}

// InStock reports whether the product has any units left.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Store provides access to the product catalog.
//
// DecrementStock is all-or-nothing per call: it either reduces stock by the
// full quantity or returns an error leaving stock untouched. Multi-item
// atomicity (decrement several SKUs or none) is the fulfillment engine's
// responsibility, not the store's.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, sku string) (*Product, error)
	CheckStock(ctx context.Context, sku string, quantity int) (bool, error)
	DecrementStock(ctx context.Context, sku string, quantity int) error
	LowStock(ctx context.Context, threshold int) ([]Product, error)
	OutOfStock(ctx context.Context) ([]Product, error)
}
