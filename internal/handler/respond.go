package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/contoso/storefront/internal/domain/catalog"
	"github.com/contoso/storefront/internal/domain/order"
)

// writeJSON encodes a response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeErr writes {"error": msg} with the given status code.
func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// internalErr logs err and writes a generic 500.
func internalErr(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("handler error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeErr(w, http.StatusInternalServerError, "internal server error")
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.Format(time.RFC3339Nano))
}

func (h *Handler) encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(p.Price.InexactFloat64()) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image)) })
	})
}

func (h *Handler) encodeOrderItem(e *jx.Encoder, it order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("sku", func(e *jx.Encoder) { e.Str(it.SKU) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(it.Price.InexactFloat64()) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(it.Image)) })
	})
}

func encodeTrackingEvent(e *jx.Encoder, ev order.TrackingEvent) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(string(ev.Status)) })
		e.Field("timestamp", func(e *jx.Encoder) { encodeTime(e, ev.Timestamp) })
		e.Field("location", func(e *jx.Encoder) { e.Str(ev.Location) })
		e.Field("description", func(e *jx.Encoder) { e.Str(ev.Description) })
	})
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("customerName", func(e *jx.Encoder) { e.Str(o.CustomerName) })
		e.Field("email", func(e *jx.Encoder) { e.Str(o.Email) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					h.encodeOrderItem(e, it)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, o.UpdatedAt) })
		if o.TrackingNumber != "" {
			e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(o.TrackingNumber) })
		}
		e.Field("trackingEvents", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ev := range o.TrackingEvents {
					encodeTrackingEvent(e, ev)
				}
			})
		})
		if o.DiscountCode != "" {
			e.Field("discountCode", func(e *jx.Encoder) { e.Str(o.DiscountCode) })
		}
	})
}

func (h *Handler) encodeOrders(e *jx.Encoder, orders []*order.Order) {
	e.Arr(func(e *jx.Encoder) {
		for _, o := range orders {
			h.encodeOrder(e, o)
		}
	})
}
