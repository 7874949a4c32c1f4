package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
	"github.com/dostavka/selection-service/internal/upstream/ratelimit"
)

// Selector runs one selection decision. Satisfied by *selection.Service.
type Selector interface {
	Select(ctx context.Context, req selection.Request) (catalog.SelectionResult, error)
}

// SkuEntry is one requested line in the inbound payload.
type SkuEntry struct {
	SKU          string `json:"sku" binding:"required"`
	CountDesired int64  `json:"count_desired" binding:"required,min=1"`
}

// Address is the requester location in the inbound payload.
type Address struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// AvailabilityRequest is the inbound payload of POST /partial_availability.
type AvailabilityRequest struct {
	City    string     `json:"city" binding:"required"`
	Skus    []SkuEntry `json:"skus" binding:"required,min=1,dive"`
	Address *Address   `json:"address" binding:"required"`
}

// AvailabilityHandler serves the partial availability endpoint.
type AvailabilityHandler struct {
	selector Selector
}

// NewAvailabilityHandler creates the handler.
func NewAvailabilityHandler(selector Selector) *AvailabilityHandler {
	return &AvailabilityHandler{selector: selector}
}

// PartialAvailability handles POST /partial_availability.
func (h *AvailabilityHandler) PartialAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	skus := make([]catalog.SkuRequest, len(req.Skus))
	for i, entry := range req.Skus {
		skus[i] = catalog.SkuRequest{SKU: entry.SKU, CountDesired: entry.CountDesired}
	}

	result, err := h.selector.Select(c.Request.Context(), selection.Request{
		City:    req.City,
		Skus:    skus,
		Address: catalog.GeoPoint{Lat: *req.Address.Lat, Lng: *req.Address.Lng},
	})
	if err != nil {
		status, payload := classify(err)
		c.JSON(status, payload)
		return
	}

	c.JSON(http.StatusOK, result)
}

// classify maps pipeline errors onto HTTP statuses so the caller can tell
// retryable transport failures from permanent input errors.
func classify(err error) (int, gin.H) {
	var invalid selection.ErrInvalidRequest
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, gin.H{"error": invalid.Error(), "field": invalid.Field}
	}

	if errors.Is(err, selection.ErrNoPharmacies) {
		return http.StatusNotFound, gin.H{"error": err.Error()}
	}

	var contract *selection.ContractError
	if errors.As(err, &contract) {
		return http.StatusBadGateway, gin.H{"error": contract.Error(), "service": contract.Service}
	}

	var pricing *selection.PricingError
	if errors.As(err, &pricing) {
		return http.StatusBadGateway, gin.H{
			"error":           pricing.Error(),
			"source_code":     pricing.SourceCode,
			"upstream_status": pricing.StatusCode,
		}
	}

	var fetch *ratelimit.FetchRetryError
	if errors.As(err, &fetch) {
		return http.StatusServiceUnavailable, gin.H{"error": fetch.Error()}
	}

	return http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"}
}
