package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
	"github.com/dostavka/selection-service/internal/upstream/ratelimit"
)

// mockSelector returns a canned result or error and records the request.
type mockSelector struct {
	result catalog.SelectionResult
	err    error
	got    selection.Request
}

func (m *mockSelector) Select(ctx context.Context, req selection.Request) (catalog.SelectionResult, error) {
	m.got = req
	return m.result, m.err
}

func newTestRouter(selector Selector) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewAvailabilityHandler(selector)
	router.POST("/partial_availability", handler.PartialAvailability)
	return router
}

func doRequest(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/partial_availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"city": "almaty",
	"skus": [{"sku": "11343", "count_desired": 2}],
	"address": {"lat": 43.23, "lng": 76.88}
}`

func TestPartialAvailabilityOK(t *testing.T) {
	quote := &catalog.Quote{
		Offer: &catalog.PharmacyOffer{
			Source: catalog.PharmacySource{Code: "ph-1", Name: "Pharmacy 1"},
			Lines: []catalog.LineItem{
				{SKU: "11343", UnitPrice: decimal.RequireFromString("750"), Quantity: 2, Source: catalog.LineOriginal},
			},
			TotalSum: decimal.RequireFromString("1500"),
		},
		Delivery:   catalog.DeliveryOption{Price: decimal.RequireFromString("350"), ETA: 45},
		TotalPrice: decimal.RequireFromString("1850"),
	}
	selector := &mockSelector{result: catalog.SelectionResult{CheapestOpen: quote, FastestOpen: quote}}

	w := doRequest(newTestRouter(selector), validBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "almaty", selector.got.City)
	assert.Equal(t, []catalog.SkuRequest{{SKU: "11343", CountDesired: 2}}, selector.got.Skus)
	assert.Equal(t, catalog.GeoPoint{Lat: 43.23, Lng: 76.88}, selector.got.Address)

	body := w.Body.String()
	assert.Contains(t, body, `"cheapest_delivery_option"`)
	assert.Contains(t, body, `"fastest_delivery_option"`)
	assert.Contains(t, body, `"ph-1"`)
}

func TestPartialAvailabilityNoViableOption(t *testing.T) {
	selector := &mockSelector{}

	w := doRequest(newTestRouter(selector), validBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"cheapest_delivery_option": null,
		"alternative_cheapest_option": null,
		"fastest_delivery_option": null,
		"alternative_fastest_option": null
	}`, w.Body.String())
}

func TestPartialAvailabilityBindingErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing city", `{"skus":[{"sku":"a","count_desired":1}],"address":{"lat":1,"lng":2}}`},
		{"empty skus", `{"city":"almaty","skus":[],"address":{"lat":1,"lng":2}}`},
		{"zero count", `{"city":"almaty","skus":[{"sku":"a","count_desired":0}],"address":{"lat":1,"lng":2}}`},
		{"missing address", `{"city":"almaty","skus":[{"sku":"a","count_desired":1}]}`},
		{"missing lat", `{"city":"almaty","skus":[{"sku":"a","count_desired":1}],"address":{"lng":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := &mockSelector{}
			w := doRequest(newTestRouter(selector), tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPartialAvailabilityErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", selection.ErrInvalidRequest{Field: "skus", Reason: "duplicate"}, http.StatusBadRequest},
		{"no pharmacies", selection.ErrNoPharmacies, http.StatusNotFound},
		{"search contract violation", &selection.ContractError{Service: "search", Reason: "no result key"}, http.StatusBadGateway},
		{"pricing failure", &selection.PricingError{SourceCode: "ph-1", StatusCode: 500}, http.StatusBadGateway},
		{"upstream unreachable", &ratelimit.FetchRetryError{URL: "http://search", Attempts: 4}, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := &mockSelector{err: tt.err}
			w := doRequest(newTestRouter(selector), validBody)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
