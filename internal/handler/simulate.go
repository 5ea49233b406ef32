package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/contoso/storefront/internal/domain/catalog"
	"github.com/contoso/storefront/internal/domain/order"
	"github.com/contoso/storefront/internal/fulfillment"
)

// simulateActionNames is the list advertised by GET /api/simulate.
var simulateActionNames = []string{
	"advance", "advance-all", "apply-discount", "trigger-replacement",
	"check-stock", "low-stock-alert",
}

type simulateRequest struct {
	Action     string `json:"action"`
	OrderID    string `json:"orderId"`
	Percentage int    `json:"percentage"`
	SKU        string `json:"sku"`
	Threshold  int    `json:"threshold"`
}

// simulate dispatches agent actions and delivery simulation steps.
func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "advance":
		h.simulateAdvance(w, r, req)
	case "advance-all":
		h.simulateAdvanceAll(w, r)
	case "apply-discount":
		h.simulateApplyDiscount(w, r, req)
	case "trigger-replacement":
		h.simulateReplacement(w, r, req)
	case "check-stock":
		h.simulateCheckStock(w, r, req)
	case "low-stock-alert":
		h.simulateLowStockAlert(w, r, req)
	default:
		writeErr(w, http.StatusBadRequest, "Unknown action")
	}
}

// simulateActions reports the available simulate actions.
func (h *Handler) simulateActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			e.Field("actions", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, a := range simulateActionNames {
						e.Str(a)
					}
				})
			})
		})
	})
}

func (h *Handler) simulateAdvance(w http.ResponseWriter, r *http.Request, req simulateRequest) {
	if req.OrderID == "" {
		writeErr(w, http.StatusBadRequest, "Missing orderId")
		return
	}
	o, err := h.engine.Advance(r.Context(), req.OrderID)
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

func (h *Handler) simulateAdvanceAll(w http.ResponseWriter, r *http.Request) {
	count, advanced, err := h.engine.AdvanceAll(r.Context())
	if err != nil {
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("advanced", func(e *jx.Encoder) { e.Int(count) })
			e.Field("orders", func(e *jx.Encoder) { h.encodeOrders(e, advanced) })
		})
	})
}

func (h *Handler) simulateApplyDiscount(w http.ResponseWriter, r *http.Request, req simulateRequest) {
	if req.OrderID == "" {
		writeErr(w, http.StatusBadRequest, "Missing orderId")
		return
	}
	// The discount record is created even when the order id does not
	// resolve; stamping is skipped in that case.
	c, err := h.engine.ApplyDiscount(r.Context(), req.OrderID, req.Percentage)
	if err != nil {
		internalErr(w, r, err)
		return
	}
	o, lookupErr := h.queries.Order(r.Context(), req.OrderID)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
			e.Field("discountCode", func(e *jx.Encoder) { e.Str(c.Code) })
			e.Field("percentage", func(e *jx.Encoder) { e.Int(c.Percentage) })
			e.Field("orderId", func(e *jx.Encoder) { e.Str(req.OrderID) })
			if lookupErr == nil {
				e.Field("customerName", func(e *jx.Encoder) { e.Str(o.CustomerName) })
			}
		})
	})
}

func (h *Handler) simulateReplacement(w http.ResponseWriter, r *http.Request, req simulateRequest) {
	if req.OrderID == "" {
		writeErr(w, http.StatusBadRequest, "Missing orderId")
		return
	}
	result, err := h.engine.TriggerReplacement(r.Context(), req.OrderID)
	if err != nil {
		var stockErr *fulfillment.InsufficientStockError
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeErr(w, http.StatusNotFound, "Order not found")
		case errors.As(err, &stockErr):
			writeErr(w, http.StatusConflict, stockErr.Error())
		default:
			internalErr(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
			e.Field("originalOrderId", func(e *jx.Encoder) { e.Str(req.OrderID) })
			e.Field("newOrderId", func(e *jx.Encoder) { e.Str(result.NewOrderID) })
			e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(result.TrackingNumber) })
			e.Field("lowStockAlerts", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range result.LowStockAlerts {
						e.Obj(func(e *jx.Encoder) {
							e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
							e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
							e.Field("remainingStock", func(e *jx.Encoder) { e.Int(p.Stock) })
						})
					}
				})
			})
		})
	})
}

func (h *Handler) simulateCheckStock(w http.ResponseWriter, r *http.Request, req simulateRequest) {
	if req.SKU == "" {
		writeErr(w, http.StatusBadRequest, "Missing sku")
		return
	}
	s, err := h.queries.StockStatus(r.Context(), req.SKU)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Product not found")
			return
		}
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("sku", func(e *jx.Encoder) { e.Str(s.SKU) })
			e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
			e.Field("stock", func(e *jx.Encoder) { e.Int(s.Stock) })
			e.Field("isInStock", func(e *jx.Encoder) { e.Bool(s.InStock) })
			e.Field("isLowStock", func(e *jx.Encoder) { e.Bool(s.LowStock) })
			e.Field("price", func(e *jx.Encoder) { e.Float64(s.Price.InexactFloat64()) })
		})
	})
}

func (h *Handler) simulateLowStockAlert(w http.ResponseWriter, r *http.Request, req simulateRequest) {
	report, err := h.queries.LowStockReport(r.Context(), req.Threshold)
	if err != nil {
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("lowStock", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range report.LowStock {
						e.Obj(func(e *jx.Encoder) {
							e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
							e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
							e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
						})
					}
				})
			})
			e.Field("outOfStock", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range report.OutOfStock {
						e.Obj(func(e *jx.Encoder) {
							e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
							e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
						})
					}
				})
			})
			e.Field("alertNeeded", func(e *jx.Encoder) { e.Bool(report.AlertNeeded) })
		})
	})
}
