package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso/storefront/internal/fulfillment"
	"github.com/contoso/storefront/internal/storage/memory"
)

// newTestServer wires a handler over fresh in-memory stores with the
// embedded seed data, mirroring how the app assembles things at startup.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	products, err := memory.SeedProducts()
	require.NoError(t, err)

	cat := memory.NewCatalogStore(products)
	orders := memory.NewOrderLedger(nil)
	discounts := memory.NewDiscountRegistry()

	engine := fulfillment.NewService(cat, orders, discounts)
	queries := fulfillment.NewQueries(cat, orders, discounts)

	mux := http.NewServeMux()
	New(Config{}, engine, queries, nil).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.ContentLength != 0 {
		dec := json.NewDecoder(resp.Body)
		// List endpoints return arrays; callers decode those themselves.
		if err := dec.Decode(&decoded); err != nil {
			decoded = nil
		}
	}
	return resp, decoded
}

func TestListProducts(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.NotEmpty(t, p["sku"])
		assert.NotEmpty(t, p["name"])
		assert.Contains(t, p, "price")
		assert.Contains(t, p, "stock")
	}
}

func TestGetProduct(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/products/CNTSO-MOUSE", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CNTSO-MOUSE", body["sku"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/products/NOPE", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["error"])
}

func TestCreateOrder(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-MOUSE", "name": "Contoso Wireless Mouse", "price": "29.99", "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ORD-1001", body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Dana Smith", body["customerName"])
	assert.NotContains(t, body, "trackingNumber")

	events, ok := body["trackingEvents"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
}

func TestCreateOrder_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "missing fields",
			body: map[string]any{"email": "dana@example.com"},
			want: "Missing customerName, email, or items",
		},
		{
			name: "empty items",
			body: map[string]any{"customerName": "Dana", "email": "d@example.com", "items": []any{}},
			want: "Missing customerName, email, or items",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/orders", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-MOUSE", "name": "Contoso Wireless Mouse", "price": "29.99", "quantity": 0},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "CNTSO-MOUSE")
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	srv := newTestServer(t)

	// CNTSO-HDST seeds with zero stock.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-HDST", "name": "Contoso Pro Headset", "price": "89.99", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["error"], "insufficient stock")
}

func TestGetOrder(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-SSD1", "name": "Contoso Portable SSD 1TB", "price": "119.99", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/orders/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/orders/ORD-9999", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Order not found", body["error"])
}

func TestListOrders_EmailFilter(t *testing.T) {
	srv := newTestServer(t)

	for _, email := range []string{"dana@example.com", "erin@example.com"} {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
			"customerName": "Customer",
			"email":        email,
			"items": []map[string]any{
				{"sku": "CNTSO-MOUSE", "name": "Contoso Wireless Mouse", "price": "29.99", "quantity": 1},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/orders?email=DANA@example.com")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "dana@example.com", orders[0]["email"])
}

func TestPatchOrder(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-CAM", "name": "Contoso Webcam", "price": "59.99", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/orders/"+id, map[string]any{
		"status": "shipped",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "shipped", body["status"])
	assert.NotEmpty(t, body["trackingNumber"], "shipped assigns a tracking number")

	events := body["trackingEvents"].([]any)
	require.Len(t, events, 2)
	last := events[1].(map[string]any)
	assert.Equal(t, "Contoso Fulfillment", last["location"])
	assert.Equal(t, "Status updated to shipped", last["description"])

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/orders/"+id, map[string]any{
		"status": "cancelled",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "unknown order status")

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/orders/"+id, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrackOrder(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-MON27", "name": "Contoso 27\" Monitor", "price": "249.99", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/orders/"+id+"/track", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["orderId"])
	assert.Equal(t, "pending", body["status"])
	assert.Nil(t, body["trackingNumber"], "tracking number is null before shipment")
	assert.NotEmpty(t, body["events"])
}

func TestSimulate_AdvanceAndDiscount(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-MOUSE", "name": "Contoso Wireless Mouse", "price": "29.99", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action":  "advance",
		"orderId": id,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processing", body["status"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action":  "apply-discount",
		"orderId": id,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Regexp(t, `^CONTOSO20-\d{5}$`, body["discountCode"])
	assert.Equal(t, "Dana Smith", body["customerName"])

	// Discounts issued for unresolved orders are still recorded; the
	// customer name is simply absent from the response.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action":     "apply-discount",
		"orderId":    "ORD-9999",
		"percentage": 50,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Regexp(t, `^CONTOSO50-\d{5}$`, body["discountCode"])
	assert.NotContains(t, body, "customerName")
}

func TestSimulate_CheckStockAndLowStockAlert(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action": "check-stock",
		"sku":    "CNTSO-KEYB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CNTSO-KEYB", body["sku"])
	assert.Equal(t, true, body["isInStock"])
	assert.Equal(t, true, body["isLowStock"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action": "low-stock-alert",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["alertNeeded"])
	low := body["lowStock"].([]any)
	out := body["outOfStock"].([]any)
	assert.NotEmpty(t, low)
	assert.NotEmpty(t, out)
}

func TestSimulate_TriggerReplacement(t *testing.T) {
	srv := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/orders", map[string]any{
		"customerName": "Dana Smith",
		"email":        "dana@example.com",
		"items": []map[string]any{
			{"sku": "CNTSO-DOCK", "name": "Contoso USB-C Dock", "price": "79.99", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action":  "trigger-replacement",
		"orderId": id,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, id, body["originalOrderId"])
	assert.Regexp(t, `^ORD-\d+$`, body["newOrderId"])
	assert.Regexp(t, `^TRK-RPL-\d{7}$`, body["trackingNumber"])

	alerts := body["lowStockAlerts"].([]any)
	require.NotEmpty(t, alerts, "dock stock drops below the alert threshold")
	first := alerts[0].(map[string]any)
	assert.Equal(t, "CNTSO-DOCK", first["sku"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action":  "trigger-replacement",
		"orderId": "ORD-9999",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Order not found", body["error"])
}

func TestSimulate_UnknownAction(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action": "teleport",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unknown action", body["error"])
}

func TestSimulate_ListActions(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/simulate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	actions := body["actions"].([]any)
	assert.Contains(t, actions, "advance")
	assert.Contains(t, actions, "trigger-replacement")
}

func TestChat_Unconfigured(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/chat", map[string]any{
		"action": "start",
	})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestListDiscounts(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/simulate", map[string]any{
		"action":  "apply-discount",
		"orderId": "ORD-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/discounts")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var codes []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&codes))
	require.Len(t, codes, 1)
	code := codes[0]["code"].(string)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/discounts/"+code, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["issued"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/discounts/CONTOSO20-00000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["issued"])
}

func TestImageURL(t *testing.T) {
	h := &Handler{imageBaseURL: "https://cdn.contoso.example"}
	assert.Equal(t, "https://cdn.contoso.example/images/a.png", h.imageURL("/images/a.png"))
	assert.Equal(t, "https://other.example/b.png", h.imageURL("https://other.example/b.png"))
	assert.Equal(t, "", h.imageURL(""))

	bare := &Handler{}
	assert.Equal(t, "/images/a.png", bare.imageURL("/images/a.png"))
}
