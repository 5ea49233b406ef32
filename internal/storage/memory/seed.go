package memory

import (
	_ "embed"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/contoso/storefront/internal/domain/catalog"
	"github.com/contoso/storefront/internal/domain/order"
)

//go:embed products.json
var productSeed []byte

type productJSON struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// SeedProducts decodes the embedded product dataset.
func SeedProducts() ([]catalog.Product, error) {
	var raw []productJSON
	if err := json.Unmarshal(productSeed, &raw); err != nil {
		return nil, errors.Wrap(err, "decode product seed")
	}

	products := make([]catalog.Product, len(raw))
	for i, p := range raw {
		products[i] = catalog.Product{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Category:    p.Category,
			Image:       p.Image,
		}
	}
	return products, nil
}

// SeedOrders returns the three demo orders the storefront starts with, in
// different lifecycle stages. Timestamps are offsets from now so the demo
// data always looks recent.
func SeedOrders(now time.Time) []*order.Order {
	placed := func(t time.Time) order.TrackingEvent {
		return order.TrackingEvent{
			Status:      order.StatusPending,
			Timestamp:   t,
			Location:    "Online",
			Description: "Order placed successfully",
		}
	}
	step := func(s order.Step, t time.Time) order.TrackingEvent {
		return order.TrackingEvent{
			Status:      s.Status,
			Timestamp:   t,
			Location:    s.Location,
			Description: s.Description,
		}
	}

	laptop := order.Item{SKU: "CNTSO-LAP15", Name: "Contoso Laptop 15", Price: decimal.RequireFromString("1299.99"), Quantity: 1, Image: "/images/laptop-15.jpg"}
	mouse := order.Item{SKU: "CNTSO-MOUSE", Name: "Contoso Wireless Mouse", Price: decimal.RequireFromString("29.99"), Quantity: 2, Image: "/images/wireless-mouse.jpg"}
	keyboard := order.Item{SKU: "CNTSO-KEYB", Name: "Contoso Mechanical Keyboard", Price: decimal.RequireFromString("89.99"), Quantity: 1, Image: "/images/mech-keyboard.jpg"}
	monitor := order.Item{SKU: "CNTSO-MON27", Name: "Contoso 27\" Monitor", Price: decimal.RequireFromString("349.99"), Quantity: 1, Image: "/images/monitor-27.jpg"}

	o1placed := now.Add(-52 * time.Hour)
	o2placed := now.Add(-20 * time.Hour)
	o3placed := now.Add(-6 * 24 * time.Hour)

	return []*order.Order{
		{
			ID:             "ORD-1001",
			CustomerName:   "Alice Johnson",
			Email:          "alice@example.com",
			Items:          []order.Item{laptop},
			Total:          decimal.RequireFromString("1299.99"),
			Status:         order.StatusShipped,
			CreatedAt:      o1placed,
			UpdatedAt:      now.Add(-14 * time.Hour),
			TrackingNumber: "TRK-4821736",
			TrackingEvents: []order.TrackingEvent{
				placed(o1placed),
				step(order.Progression[0], now.Add(-40*time.Hour)),
				step(order.Progression[1], now.Add(-14*time.Hour)),
			},
		},
		{
			ID:           "ORD-1002",
			CustomerName: "Bob Rivera",
			Email:        "bob@example.com",
			Items:        []order.Item{mouse, keyboard},
			Total:        decimal.RequireFromString("149.97"),
			Status:       order.StatusProcessing,
			CreatedAt:    o2placed,
			UpdatedAt:    now.Add(-9 * time.Hour),
			TrackingEvents: []order.TrackingEvent{
				placed(o2placed),
				step(order.Progression[0], now.Add(-9*time.Hour)),
			},
		},
		{
			ID:             "ORD-1003",
			CustomerName:   "Carol Chen",
			Email:          "carol@example.com",
			Items:          []order.Item{monitor},
			Total:          decimal.RequireFromString("349.99"),
			Status:         order.StatusDelivered,
			CreatedAt:      o3placed,
			UpdatedAt:      now.Add(-2 * 24 * time.Hour),
			TrackingNumber: "TRK-1150923",
			TrackingEvents: []order.TrackingEvent{
				placed(o3placed),
				step(order.Progression[0], now.Add(-5*24*time.Hour)),
				step(order.Progression[1], now.Add(-4*24*time.Hour)),
				step(order.Progression[2], now.Add(-3*24*time.Hour)),
				step(order.Progression[3], now.Add(-2*24*time.Hour)),
			},
		},
	}
}
