// Package fulfillment implements the order lifecycle engine: order creation
// with all-or-nothing stock reservation, the delivery-status state machine,
// discount issuance, and replacement shipments. The engine is the sole
// mutator of the catalog, order ledger, and discount registry.
package fulfillment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/contoso/storefront/internal/domain/catalog"
	"github.com/contoso/storefront/internal/domain/discount"
	"github.com/contoso/storefront/internal/domain/order"
)

// DefaultLowStockThreshold is the stock level below which a product is
// flagged for replenishment.
const DefaultLowStockThreshold = 5

// DefaultDiscountPercentage is used when a discount request does not name one.
const DefaultDiscountPercentage = 20

// ErrEmptyItems is returned when an order request has no items.
var ErrEmptyItems = errors.New("items required")

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	SKU string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for %s", e.SKU)
}

// InsufficientStockError indicates an order or replacement could not reserve
// stock. No stock was decremented for any item of the failed operation.
type InsufficientStockError struct {
	SKU       string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (SKU: %s): available %d, requested %d",
		e.Name, e.SKU, e.Available, e.Requested)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerName string
	Email        string
	Items        []order.Item
}

// ReplacementResult is the outcome of a successful replacement issuance.
type ReplacementResult struct {
	NewOrderID     string
	TrackingNumber string
	// LowStockAlerts lists products whose stock dropped below the
	// replenishment threshold while fulfilling the replacement.
	LowStockAlerts []catalog.Product
}

// Service is the fulfillment engine.
//
// Mutating operations serialize on a single mutex so that every multi-item
// check-then-decrement sequence runs as one critical section; the pre-check
// is therefore never invalidated before the decrement, and stock can never
// go partially reserved or negative.
type Service struct {
	mu        sync.Mutex
	catalog   catalog.Store
	orders    order.Ledger
	discounts discount.Registry

	lg      *zap.Logger
	metrics *Metrics
	now     func() time.Time
	// seq feeds tracking-number and discount-code suffixes. Seeded from
	// wall-clock millis so codes look time-derived, but strictly monotonic:
	// two issuances in the same millisecond still get distinct codes.
	seq atomic.Uint64
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithLogger sets the engine logger. Defaults to a nop logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.lg = lg }
}

// WithMetrics attaches operation counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the engine over the given stores.
func NewService(cat catalog.Store, orders order.Ledger, discounts discount.Registry, opts ...Option) *Service {
	s := &Service{
		catalog:   cat,
		orders:    orders,
		discounts: discounts,
		lg:        zap.NewNop(),
		now:       time.Now,
	}
	s.seq.Store(uint64(time.Now().UnixMilli()))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder validates stock for every requested item, reserves it, and
// records a new pending order. If any item is short, nothing is decremented.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{SKU: item.SKU}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reserveStock(ctx, req.Items); err != nil {
		return nil, err
	}

	id, err := s.orders.NextID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "allocate order id")
	}

	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	now := s.now()
	o := &order.Order{
		ID:           id,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Items:        req.Items,
		Total:        total,
		Status:       order.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		TrackingEvents: []order.TrackingEvent{{
			Status:      order.StatusPending,
			Timestamp:   now,
			Location:    "Online",
			Description: "Order placed successfully",
		}},
	}
	if err := s.orders.Insert(ctx, o); err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	s.lg.Info("order placed",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.String()),
	)
	s.metrics.OrderCreated(ctx)
	return o, nil
}

// reserveStock checks every item first and decrements only when all checks
// pass. Callers must hold s.mu so no other mutation can interleave between
// the check phase and the decrement phase.
func (s *Service) reserveStock(ctx context.Context, items []order.Item) error {
	for _, item := range items {
		ok, err := s.catalog.CheckStock(ctx, item.SKU, item.Quantity)
		if err != nil {
			return errors.Wrapf(err, "check stock %s", item.SKU)
		}
		if !ok {
			available := 0
			if p, err := s.catalog.Get(ctx, item.SKU); err == nil {
				available = p.Stock
			}
			return &InsufficientStockError{
				SKU:       item.SKU,
				Name:      item.Name,
				Available: available,
				Requested: item.Quantity,
			}
		}
	}
	for _, item := range items {
		if err := s.catalog.DecrementStock(ctx, item.SKU, item.Quantity); err != nil {
			// Unreachable while s.mu is held: validated above.
			return errors.Wrapf(err, "decrement stock %s", item.SKU)
		}
	}
	return nil
}

// SetStatus force-sets an order's status. It is the permissive primitive for
// support and ops flows and performs no transition-legality check; Advance is
// the strict forward walk. Reaching shipped assigns a tracking number if the
// order has none yet. An event is always appended and UpdatedAt bumped.
func (s *Service) SetStatus(ctx context.Context, id string, st order.Status, location, description string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatus(ctx, id, st, location, description)
}

func (s *Service) setStatus(ctx context.Context, id string, st order.Status, location, description string) (*order.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o.Status = st
	o.UpdatedAt = now
	if st == order.StatusShipped && o.TrackingNumber == "" {
		o.TrackingNumber = s.trackingNumber("TRK-")
	}
	o.TrackingEvents = append(o.TrackingEvents, order.TrackingEvent{
		Status:      st,
		Timestamp:   now,
		Location:    location,
		Description: description,
	})

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	s.lg.Info("order status set",
		zap.String("order_id", id),
		zap.String("status", string(st)),
		zap.String("location", location),
	)
	return o, nil
}

// Advance moves an order one step along the forward delivery progression.
// Orders in a side state restart at processing; delivered orders are
// returned unchanged.
func (s *Service) Advance(ctx context.Context, id string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance(ctx, id)
}

func (s *Service) advance(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	step, ok := order.NextStep(o.Status)
	if !ok {
		return o, nil
	}
	o, err = s.setStatus(ctx, id, step.Status, step.Location, step.Description)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderAdvanced(ctx)
	return o, nil
}

// AdvanceAll advances every order that is still in the delivery pipeline,
// skipping delivered, refunded, and replacement_sent orders. It returns the
// advanced orders and their count.
func (s *Service) AdvanceAll(ctx context.Context) (int, []*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.orders.List(ctx)
	if err != nil {
		return 0, nil, errors.Wrap(err, "list orders")
	}

	advanced := make([]*order.Order, 0, len(all))
	for _, o := range all {
		if !o.Status.AutoAdvances() {
			continue
		}
		upd, err := s.advance(ctx, o.ID)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "advance %s", o.ID)
		}
		advanced = append(advanced, upd)
	}
	return len(advanced), advanced, nil
}

// ApplyDiscount issues a new discount code referencing orderID and stamps it
// on the order when the order exists. The code is recorded even when the
// order does not resolve: support flows may pre-generate codes before the
// order lookup settles.
func (s *Service) ApplyDiscount(ctx context.Context, orderID string, percentage int) (*discount.Code, error) {
	if percentage <= 0 {
		percentage = DefaultDiscountPercentage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &discount.Code{
		Code:       fmt.Sprintf("CONTOSO%d-%s", percentage, s.suffix(5)),
		Percentage: percentage,
		OrderID:    orderID,
		CreatedAt:  s.now(),
	}
	if err := s.discounts.Insert(ctx, c); err != nil {
		return nil, errors.Wrap(err, "record discount")
	}

	if o, err := s.orders.Get(ctx, orderID); err == nil {
		o.DiscountCode = c.Code
		if err := s.orders.Update(ctx, o); err != nil {
			return nil, errors.Wrap(err, "stamp discount code")
		}
	}

	s.lg.Info("discount issued",
		zap.String("code", c.Code),
		zap.Int("percentage", c.Percentage),
		zap.String("order_id", orderID),
	)
	s.metrics.DiscountIssued(ctx)
	return c, nil
}

// TriggerReplacement issues a free replacement for an existing order: it
// re-reserves stock for the original items, marks the original
// replacement_sent, and creates a zero-total order already in processing
// with its own tracking number.
func (s *Service) TriggerReplacement(ctx context.Context, orderID string) (*ReplacementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.reserveStock(ctx, orig.Items); err != nil {
		return nil, err
	}

	var alerts []catalog.Product
	for _, item := range orig.Items {
		p, err := s.catalog.Get(ctx, item.SKU)
		if err != nil {
			continue
		}
		if p.Stock < DefaultLowStockThreshold {
			alerts = append(alerts, *p)
		}
	}

	if _, err := s.setStatus(ctx, orderID, order.StatusReplacementSent, "Contoso HQ", "Replacement order initiated"); err != nil {
		return nil, errors.Wrap(err, "mark original order")
	}

	id, err := s.orders.NextID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "allocate order id")
	}

	now := s.now()
	warehouse := order.Progression[0]
	repl := &order.Order{
		ID:             id,
		CustomerName:   orig.CustomerName,
		Email:          orig.Email,
		Items:          orig.Items,
		Total:          decimal.Zero, // replacement is free
		Status:         order.StatusProcessing,
		CreatedAt:      now,
		UpdatedAt:      now,
		TrackingNumber: s.trackingNumber("TRK-RPL-"),
		TrackingEvents: []order.TrackingEvent{
			{Status: order.StatusPending, Timestamp: now, Location: "Online", Description: "Replacement order created"},
			{Status: order.StatusProcessing, Timestamp: now, Location: warehouse.Location, Description: "Replacement being prepared"},
		},
	}
	if err := s.orders.Insert(ctx, repl); err != nil {
		return nil, errors.Wrap(err, "insert replacement order")
	}

	s.lg.Info("replacement issued",
		zap.String("original_order_id", orderID),
		zap.String("replacement_order_id", repl.ID),
		zap.Int("low_stock_alerts", len(alerts)),
	)
	s.metrics.ReplacementIssued(ctx)
	return &ReplacementResult{
		NewOrderID:     repl.ID,
		TrackingNumber: repl.TrackingNumber,
		LowStockAlerts: alerts,
	}, nil
}

// trackingNumber produces prefix plus seven digits from the sequence.
func (s *Service) trackingNumber(prefix string) string {
	return prefix + s.suffix(7)
}

// suffix returns the trailing n decimal digits of the next sequence value,
// zero-padded.
func (s *Service) suffix(n int) string {
	v := s.seq.Add(1)
	mod := uint64(1)
	for range n {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", n, v%mod)
}
