package fulfillment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/contoso/storefront/internal/domain/catalog"
	"github.com/contoso/storefront/internal/domain/discount"
	"github.com/contoso/storefront/internal/domain/order"
)

// Queries is the read-only projection over the stores the engine mutates.
// Reads take store-level read locks only; two sequential reads may observe
// different states when a mutation lands between them.
type Queries struct {
	catalog   catalog.Store
	orders    order.Ledger
	discounts discount.Registry
}

// NewQueries creates the read facade.
func NewQueries(cat catalog.Store, orders order.Ledger, discounts discount.Registry) *Queries {
	return &Queries{catalog: cat, orders: orders, discounts: discounts}
}

// TrackingDetail is the delivery view of a single order.
type TrackingDetail struct {
	OrderID        string
	Status         order.Status
	TrackingNumber string
	Events         []order.TrackingEvent
}

// StockStatus is the ops view of a single product's availability.
type StockStatus struct {
	SKU      string
	Name     string
	Stock    int
	InStock  bool
	LowStock bool
	Price    decimal.Decimal
}

// LowStockReport lists products needing replenishment attention.
type LowStockReport struct {
	LowStock    []catalog.Product
	OutOfStock  []catalog.Product
	AlertNeeded bool
}

// Products lists the catalog.
func (q *Queries) Products(ctx context.Context) ([]catalog.Product, error) {
	return q.catalog.List(ctx)
}

// Product returns one product by SKU.
func (q *Queries) Product(ctx context.Context, sku string) (*catalog.Product, error) {
	return q.catalog.Get(ctx, sku)
}

// Orders lists all orders.
func (q *Queries) Orders(ctx context.Context) ([]*order.Order, error) {
	return q.orders.List(ctx)
}

// Order returns one order by id.
func (q *Queries) Order(ctx context.Context, id string) (*order.Order, error) {
	return q.orders.Get(ctx, id)
}

// OrdersByEmail lists orders whose email matches case-insensitively.
func (q *Queries) OrdersByEmail(ctx context.Context, email string) ([]*order.Order, error) {
	return q.orders.ListByEmail(ctx, email)
}

// Tracking returns the delivery view of an order.
func (q *Queries) Tracking(ctx context.Context, id string) (*TrackingDetail, error) {
	o, err := q.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TrackingDetail{
		OrderID:        o.ID,
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		Events:         o.TrackingEvents,
	}, nil
}

// StockStatus returns the availability view of a product.
func (q *Queries) StockStatus(ctx context.Context, sku string) (*StockStatus, error) {
	p, err := q.catalog.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	return &StockStatus{
		SKU:      p.SKU,
		Name:     p.Name,
		Stock:    p.Stock,
		InStock:  p.Stock > 0,
		LowStock: p.Stock > 0 && p.Stock < DefaultLowStockThreshold,
		Price:    p.Price,
	}, nil
}

// LowStockReport lists low-stock and out-of-stock products. A non-positive
// threshold falls back to the default.
func (q *Queries) LowStockReport(ctx context.Context, threshold int) (*LowStockReport, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	low, err := q.catalog.LowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	out, err := q.catalog.OutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	return &LowStockReport{
		LowStock:    low,
		OutOfStock:  out,
		AlertNeeded: len(low) > 0 || len(out) > 0,
	}, nil
}

// DiscountIssued reports whether a code was issued by this process.
func (q *Queries) DiscountIssued(ctx context.Context, code string) (bool, error) {
	return q.discounts.Issued(ctx, code)
}

// Discounts lists every issued discount code.
func (q *Queries) Discounts(ctx context.Context) ([]discount.Code, error) {
	return q.discounts.List(ctx)
}
