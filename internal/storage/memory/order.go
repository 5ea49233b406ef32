package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"github.com/contoso/storefront/internal/domain/order"
)

var _ order.Ledger = (*OrderLedger)(nil)

// OrderLedger is an in-memory order.Ledger. Orders are stored by value behind
// the lock; Get and List hand out clones so callers never share mutable state
// with the ledger or with each other.
type OrderLedger struct {
	mu      sync.RWMutex
	orders  map[string]*order.Order
	ids     []string
	counter int
}

// NewOrderLedger builds a ledger holding the given seed orders. The id
// counter starts one above the highest numeric suffix among the seeds, so
// freshly allocated ids never collide with seeded ones.
func NewOrderLedger(seed []*order.Order) *OrderLedger {
	l := &OrderLedger{
		orders:  make(map[string]*order.Order, len(seed)),
		ids:     make([]string, 0, len(seed)),
		counter: 1001,
	}
	for _, o := range seed {
		l.orders[o.ID] = o.Clone()
		l.ids = append(l.ids, o.ID)
		if n, ok := orderNumber(o.ID); ok && n >= l.counter {
			l.counter = n + 1
		}
	}
	return l
}

// orderNumber extracts the numeric suffix from an ORD-<n> id.
func orderNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "ORD-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextID allocates the next ORD-<n> identifier.
func (l *OrderLedger) NextID(_ context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := fmt.Sprintf("ORD-%d", l.counter)
	l.counter++
	return id, nil
}

// Insert stores a new order. The id must not already exist.
func (l *OrderLedger) Insert(_ context.Context, o *order.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.orders[o.ID]; ok {
		return errors.Errorf("order %q already exists", o.ID)
	}
	l.orders[o.ID] = o.Clone()
	l.ids = append(l.ids, o.ID)
	return nil
}

// Update replaces an existing order.
func (l *OrderLedger) Update(_ context.Context, o *order.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.orders[o.ID]; !ok {
		return errors.Wrapf(order.ErrNotFound, "id %q", o.ID)
	}
	l.orders[o.ID] = o.Clone()
	return nil
}

// Get returns a clone of the order with the given id.
func (l *OrderLedger) Get(_ context.Context, id string) (*order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[id]
	if !ok {
		return nil, errors.Wrapf(order.ErrNotFound, "id %q", id)
	}
	return o.Clone(), nil
}

// List returns clones of all orders in insertion order.
func (l *OrderLedger) List(_ context.Context) ([]*order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*order.Order, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, l.orders[id].Clone())
	}
	return out, nil
}

// ListByEmail returns clones of orders whose email matches case-insensitively.
func (l *OrderLedger) ListByEmail(_ context.Context, email string) ([]*order.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	want := strings.ToLower(email)
	var out []*order.Order
	for _, id := range l.ids {
		if o := l.orders[id]; strings.ToLower(o.Email) == want {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}
