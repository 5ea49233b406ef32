package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an order id does not resolve.
var ErrNotFound = errors.New("order not found")

// Item is a line item snapshot copied into an order at creation time.
// Later catalog price or name changes do not retroactively alter placed
// orders.
type Item struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

// TrackingEvent records one delivery-state change. Events are immutable once
// appended; their array order is the chronological order, even when two
// events share a timestamp.
type TrackingEvent struct {
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// Order is a customer order progressing through the delivery pipeline.
//
// Invariants maintained by the fulfillment engine: TrackingEvents is never
// empty after creation, its last entry's status equals Status, and ID never
// changes.
type Order struct {
	ID             string
	CustomerName   string
	Email          string
	Items          []Item
	Total          decimal.Decimal
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	TrackingNumber string
	TrackingEvents []TrackingEvent
	DiscountCode   string
}

// Clone returns a deep copy of the order. Slices are copied so callers can
// append events or items without affecting the original.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]Item, len(o.Items))
	copy(c.Items, o.Items)
	c.TrackingEvents = make([]TrackingEvent, len(o.TrackingEvents))
	copy(c.TrackingEvents, o.TrackingEvents)
	return &c
}

// Ledger holds order records for the life of the process.
//
// Get and List return copies; mutations go through Update. NextID allocates
// the next ORD-<n> identifier from a monotonic counter seeded above the
// highest seed order id.
type Ledger interface {
	Insert(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByEmail(ctx context.Context, email string) ([]*Order, error)
	NextID(ctx context.Context) (string, error)
}
