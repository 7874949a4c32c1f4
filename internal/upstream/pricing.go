package upstream

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
)

// PricingClient calls the delivery pricing service for one pharmacy at a
// time.
type PricingClient struct {
	client  *Client
	baseURL string
	logger  zerolog.Logger
}

// NewPricingClient creates a pricing client against the given endpoint.
func NewPricingClient(client *Client, baseURL string) *PricingClient {
	return &PricingClient{
		client:  client,
		baseURL: baseURL,
		logger:  log.With().Str("component", "pricing_client").Logger(),
	}
}

// pricingResponse mirrors the delivery pricing wire contract.
type pricingResponse struct {
	Status string `json:"status"`
	Result struct {
		Delivery []catalog.DeliveryOption `json:"delivery"`
	} `json:"result"`
}

// DeliveryOptions posts the basket and returns the delivery tiers for the
// pharmacy. Any non-success outcome becomes a PricingError carrying the
// source code and upstream status, so the caller can localize the failure.
func (c *PricingClient) DeliveryOptions(ctx context.Context, req catalog.DeliveryRequest) ([]catalog.DeliveryOption, error) {
	body, status, err := c.client.PostJSON(ctx, c.baseURL, req)
	if err != nil {
		return nil, &selection.PricingError{
			SourceCode: req.SourceCode,
			StatusCode: status,
			Err:        err,
		}
	}

	var parsed pricingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &selection.PricingError{
			SourceCode: req.SourceCode,
			StatusCode: status,
			Err:        err,
		}
	}
	if parsed.Status != "success" {
		c.logger.Error().
			Str("pharmacy", req.SourceCode).
			Str("status", parsed.Status).
			Msg("unexpected delivery pricing status")
		return nil, &selection.PricingError{
			SourceCode: req.SourceCode,
			StatusCode: status,
			Status:     parsed.Status,
		}
	}
	return parsed.Result.Delivery, nil
}
