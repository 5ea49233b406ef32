package memory

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/contoso/storefront/internal/domain/discount"
)

// Expected issued-code volume for sizing the bloom filter. The demo issues
// far fewer; the filter just keeps negative lookups cheap if it ever grows.
const (
	bloomCapacity = 100_000
	bloomFPR      = 0.001
)

var _ discount.Registry = (*DiscountRegistry)(nil)

// DiscountRegistry is an in-memory discount.Registry. A bloom filter fronts
// membership checks so Issued answers most negatives without touching the
// code list; positives are confirmed against the authoritative map.
type DiscountRegistry struct {
	mu     sync.RWMutex
	codes  []discount.Code
	byCode map[string]struct{}
	filter *bloom.BloomFilter
}

// NewDiscountRegistry builds an empty registry.
func NewDiscountRegistry() *DiscountRegistry {
	return &DiscountRegistry{
		byCode: make(map[string]struct{}),
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// Insert records an issued code.
func (r *DiscountRegistry) Insert(_ context.Context, c *discount.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes = append(r.codes, *c)
	r.byCode[c.Code] = struct{}{}
	r.filter.AddString(c.Code)
	return nil
}

// List returns all issued codes in issuance order.
func (r *DiscountRegistry) List(_ context.Context) ([]discount.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]discount.Code, len(r.codes))
	copy(out, r.codes)
	return out, nil
}

// Issued reports whether code was issued by this registry.
func (r *DiscountRegistry) Issued(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.filter.TestString(code) {
		return false, nil
	}
	_, ok := r.byCode[code]
	return ok, nil
}
