package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/contoso/storefront/internal/domain/catalog"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.queries.Products(r.Context())
	if err != nil {
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				h.encodeProduct(e, p)
			}
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.queries.Product(r.Context(), r.PathValue("sku"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Product not found")
			return
		}
		internalErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, *p)
	})
}
