package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/contoso/storefront/internal/domain/order"
	"github.com/contoso/storefront/internal/fulfillment"
)

type orderItemRequest struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

type createOrderRequest struct {
	CustomerName string             `json:"customerName"`
	Email        string             `json:"email"`
	Items        []orderItemRequest `json:"items"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CustomerName == "" || req.Email == "" || len(req.Items) == 0 {
		writeErr(w, http.StatusBadRequest, "Missing customerName, email, or items")
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.Item{
			SKU:      it.SKU,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Image:    it.Image,
		}
	}

	o, err := h.engine.PlaceOrder(r.Context(), fulfillment.PlaceOrderRequest{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Items:        items,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}

// writeOrderError maps order placement errors to status codes.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *fulfillment.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeErr(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, fulfillment.ErrEmptyItems):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		var qtyErr *fulfillment.InvalidQuantityError
		if errors.As(err, &qtyErr) {
			writeErr(w, http.StatusBadRequest, qtyErr.Error())
			return
		}
		internalErr(w, r, err)
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []*order.Order
		err    error
	)
	if email := r.URL.Query().Get("email"); email != "" {
		orders, err = h.queries.OrdersByEmail(r.Context(), email)
	} else {
		orders, err = h.queries.Orders(r.Context())
	}
	if err != nil {
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeOrders(e, orders)
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queries.Order(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Order not found")
			return
		}
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}

type patchOrderRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (h *Handler) patchOrder(w http.ResponseWriter, r *http.Request) {
	var req patchOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeErr(w, http.StatusBadRequest, "Missing status")
		return
	}
	st, err := order.ParseStatus(req.Status)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	location := req.Location
	if location == "" {
		location = "Contoso Fulfillment"
	}
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Status updated to %s", st)
	}

	o, err := h.engine.SetStatus(r.Context(), r.PathValue("id"), st, location, description)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Order not found")
			return
		}
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	t, err := h.queries.Tracking(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Order not found")
			return
		}
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(t.OrderID) })
			e.Field("status", func(e *jx.Encoder) { e.Str(string(t.Status)) })
			e.Field("trackingNumber", func(e *jx.Encoder) {
				if t.TrackingNumber == "" {
					e.Null()
					return
				}
				e.Str(t.TrackingNumber)
			})
			e.Field("events", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, ev := range t.Events {
						encodeTrackingEvent(e, ev)
					}
				})
			})
		})
	})
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	codes, err := h.queries.Discounts(r.Context())
	if err != nil {
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range codes {
				e.Obj(func(e *jx.Encoder) {
					e.Field("code", func(e *jx.Encoder) { e.Str(c.Code) })
					e.Field("percentage", func(e *jx.Encoder) { e.Int(c.Percentage) })
					e.Field("orderId", func(e *jx.Encoder) { e.Str(c.OrderID) })
					e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, c.CreatedAt) })
				})
			}
		})
	})
}

func (h *Handler) checkDiscount(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	issued, err := h.queries.DiscountIssued(r.Context(), code)
	if err != nil {
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(code) })
			e.Field("issued", func(e *jx.Encoder) { e.Bool(issued) })
		})
	})
}
