package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
)

// SearchClient calls the inventory search service.
type SearchClient struct {
	client  *Client
	baseURL string
	logger  zerolog.Logger
}

// NewSearchClient creates a search client against the given endpoint.
func NewSearchClient(client *Client, baseURL string) *SearchClient {
	return &SearchClient{
		client:  client,
		baseURL: baseURL,
		logger:  log.With().Str("component", "search_client").Logger(),
	}
}

// searchResponse mirrors the inventory search wire contract. Result is a
// pointer so a missing "result" key is distinguishable from an empty list.
type searchResponse struct {
	Result *[]catalog.Pharmacy `json:"result"`
}

// Search posts the ordered SKU list and returns the raw pharmacy results.
// A response without a "result" key, or one that is not a JSON object,
// fails the whole request: there is no partial inventory to work from.
func (c *SearchClient) Search(ctx context.Context, city string, skus []catalog.SkuRequest) ([]catalog.Pharmacy, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("city", city)
	endpoint.RawQuery = q.Encode()

	body, status, err := c.client.PostJSON(ctx, endpoint.String(), skus)
	if err != nil {
		c.logger.Error().Err(err).Int("status", status).Msg("inventory search request failed")
		return nil, fmt.Errorf("inventory search failed: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &selection.ContractError{Service: "search", Reason: "response is not a JSON object: " + err.Error()}
	}
	if parsed.Result == nil {
		return nil, &selection.ContractError{Service: "search", Reason: "response lacks a result key"}
	}
	return *parsed.Result, nil
}
