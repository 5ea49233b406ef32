package fulfillment

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the engine's operation counters. A nil *Metrics is valid and
// records nothing, so the engine never branches on instrumentation.
type Metrics struct {
	ordersCreated      metric.Int64Counter
	ordersAdvanced     metric.Int64Counter
	discountsIssued    metric.Int64Counter
	replacementsIssued metric.Int64Counter
}

// NewMetrics registers the engine counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ordersCreated, err = meter.Int64Counter("storefront.orders.created",
		metric.WithDescription("Orders successfully placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	if m.ordersAdvanced, err = meter.Int64Counter("storefront.orders.advanced",
		metric.WithDescription("Order status advancements along the delivery pipeline"),
	); err != nil {
		return nil, errors.Wrap(err, "orders advanced counter")
	}
	if m.discountsIssued, err = meter.Int64Counter("storefront.discounts.issued",
		metric.WithDescription("Discount codes issued"),
	); err != nil {
		return nil, errors.Wrap(err, "discounts issued counter")
	}
	if m.replacementsIssued, err = meter.Int64Counter("storefront.replacements.issued",
		metric.WithDescription("Replacement orders issued"),
	); err != nil {
		return nil, errors.Wrap(err, "replacements issued counter")
	}
	return m, nil
}

// OrderCreated increments the placed-orders counter.
func (m *Metrics) OrderCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
}

// OrderAdvanced increments the advancement counter.
func (m *Metrics) OrderAdvanced(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersAdvanced.Add(ctx, 1)
}

// DiscountIssued increments the issued-discounts counter.
func (m *Metrics) DiscountIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.discountsIssued.Add(ctx, 1)
}

// ReplacementIssued increments the issued-replacements counter.
func (m *Metrics) ReplacementIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.replacementsIssued.Add(ctx, 1)
}
