package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/contoso/storefront/internal/domain/catalog"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore is an in-memory catalog.Store. Products are seeded once at
// construction and live for the process lifetime; only stock changes.
type CatalogStore struct {
	mu       sync.RWMutex
	products map[string]*catalog.Product
	// skus preserves seed order for List.
	skus []string
}

// NewCatalogStore builds a store holding copies of the given products.
func NewCatalogStore(products []catalog.Product) *CatalogStore {
	s := &CatalogStore{
		products: make(map[string]*catalog.Product, len(products)),
		skus:     make([]string, 0, len(products)),
	}
	for i := range products {
		p := products[i]
		s.products[p.SKU] = &p
		s.skus = append(s.skus, p.SKU)
	}
	return s
}

// List returns all products in seed order.
func (s *CatalogStore) List(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(s.skus))
	for _, sku := range s.skus {
		out = append(out, *s.products[sku])
	}
	return out, nil
}

// Get returns a copy of the product with the given SKU.
func (s *CatalogStore) Get(_ context.Context, sku string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[sku]
	if !ok {
		return nil, errors.Wrapf(catalog.ErrNotFound, "sku %q", sku)
	}
	c := *p
	return &c, nil
}

// CheckStock reports whether the product exists and has at least quantity
// units in stock.
func (s *CatalogStore) CheckStock(_ context.Context, sku string, quantity int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[sku]
	return ok && p.Stock >= quantity, nil
}

// DecrementStock reduces the product's stock by quantity. It mutates nothing
// when the product is missing or short.
func (s *CatalogStore) DecrementStock(_ context.Context, sku string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[sku]
	if !ok {
		return errors.Wrapf(catalog.ErrNotFound, "sku %q", sku)
	}
	if p.Stock < quantity {
		return errors.Wrapf(catalog.ErrInsufficientStock, "sku %q: have %d, want %d", sku, p.Stock, quantity)
	}
	p.Stock -= quantity
	return nil
}

// LowStock returns products with 0 < stock < threshold, in seed order.
func (s *CatalogStore) LowStock(_ context.Context, threshold int) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Product
	for _, sku := range s.skus {
		if p := s.products[sku]; p.Stock > 0 && p.Stock < threshold {
			out = append(out, *p)
		}
	}
	return out, nil
}

// OutOfStock returns products with zero stock, in seed order.
func (s *CatalogStore) OutOfStock(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Product
	for _, sku := range s.skus {
		if p := s.products[sku]; p.Stock == 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}
