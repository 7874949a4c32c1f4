package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
	"github.com/dostavka/selection-service/internal/upstream/ratelimit"
)

func fastClient() *Client {
	return NewClient(ratelimit.Config{
		RequestsPerSecond: 1000,
		MaxRetries:        1,
		InitialBackoffMs:  1,
		MaxBackoffMs:      5,
	}, 5*time.Second)
}

func TestSearchParsesResult(t *testing.T) {
	var gotCity string
	var gotBody []catalog.SkuRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCity = r.URL.Query().Get("city")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"source":{"code":"ph-1","name":"Pharmacy 1"},"products":[{"sku":"a","base_price":"150.50","quantity":3}]}]}`))
	}))
	defer server.Close()

	client := NewSearchClient(fastClient(), server.URL)
	skus := []catalog.SkuRequest{{SKU: "a", CountDesired: 2}}

	pharmacies, err := client.Search(context.Background(), "almaty", skus)

	assert.NoError(t, err)
	assert.Equal(t, "almaty", gotCity)
	assert.Equal(t, skus, gotBody)
	assert.Len(t, pharmacies, 1)
	assert.Equal(t, "ph-1", pharmacies[0].Source.Code)
	assert.Equal(t, "150.5", pharmacies[0].Products[0].BasePrice.String())
	assert.Equal(t, int64(3), pharmacies[0].Products[0].Quantity)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := NewSearchClient(fastClient(), server.URL)
	pharmacies, err := client.Search(context.Background(), "almaty", nil)

	assert.NoError(t, err)
	assert.Empty(t, pharmacies)
}

func TestSearchMissingResultKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":"something else"}`))
	}))
	defer server.Close()

	client := NewSearchClient(fastClient(), server.URL)
	_, err := client.Search(context.Background(), "almaty", nil)

	var contract *selection.ContractError
	assert.ErrorAs(t, err, &contract)
	assert.Equal(t, "search", contract.Service)
}

func TestSearchNonObjectResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"just a string"`))
	}))
	defer server.Close()

	client := NewSearchClient(fastClient(), server.URL)
	_, err := client.Search(context.Background(), "almaty", nil)

	var contract *selection.ContractError
	assert.ErrorAs(t, err, &contract)
}

func TestSearchServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSearchClient(fastClient(), server.URL)
	_, err := client.Search(context.Background(), "almaty", nil)

	assert.Error(t, err)
	var fetch *ratelimit.FetchRetryError
	assert.ErrorAs(t, err, &fetch)
	assert.Equal(t, http.StatusInternalServerError, fetch.LastStatus)
}
