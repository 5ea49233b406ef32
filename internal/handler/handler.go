// Package handler is the HTTP JSON adapter over the fulfillment engine and
// the Direct Line proxy. It parses requests, delegates to the engine or the
// query facade, and maps domain errors to status codes; no business logic
// lives here.
package handler

import (
	"net/http"
	"strings"

	"github.com/contoso/storefront/internal/directline"
	"github.com/contoso/storefront/internal/fulfillment"
)

// Config holds non-dependency handler settings.
type Config struct {
	// ImageBaseURL is prepended to relative product image paths. Absolute
	// URLs and an empty base are passed through unchanged.
	ImageBaseURL string
}

// Handler serves the storefront API.
type Handler struct {
	engine  *fulfillment.Service
	queries *fulfillment.Queries
	bot     *directline.Client

	imageBaseURL string
}

// New constructs a Handler. bot may be nil when no Direct Line upstream is
// configured; chat requests then fail with 503.
func New(cfg Config, engine *fulfillment.Service, queries *fulfillment.Queries, bot *directline.Client) *Handler {
	return &Handler{
		engine:       engine,
		queries:      queries,
		bot:          bot,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts all API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{sku}", h.getProduct)
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PATCH /api/orders/{id}", h.patchOrder)
	mux.HandleFunc("GET /api/orders/{id}/track", h.trackOrder)
	mux.HandleFunc("GET /api/discounts", h.listDiscounts)
	mux.HandleFunc("GET /api/discounts/{code}", h.checkDiscount)
	mux.HandleFunc("POST /api/simulate", h.simulate)
	mux.HandleFunc("GET /api/simulate", h.simulateActions)
	mux.HandleFunc("POST /api/chat", h.chat)
}

// imageURL resolves a stored image path against the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + path
}
