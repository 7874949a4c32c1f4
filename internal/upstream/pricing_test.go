package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
)

func deliveryRequest() catalog.DeliveryRequest {
	return catalog.DeliveryRequest{
		Items:      []catalog.DeliveryItem{{SKU: "a", Quantity: 2}},
		Dst:        catalog.GeoPoint{Lat: 43.23, Lng: 76.88},
		SourceCode: "ph-1",
	}
}

func TestDeliveryOptionsSuccess(t *testing.T) {
	var gotBody catalog.DeliveryRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"status":"success","result":{"delivery":[{"price":"350","eta":45},{"price":"500","eta":15}]}}`))
	}))
	defer server.Close()

	client := NewPricingClient(fastClient(), server.URL)
	options, err := client.DeliveryOptions(context.Background(), deliveryRequest())

	assert.NoError(t, err)
	assert.Equal(t, "ph-1", gotBody.SourceCode)
	assert.Equal(t, []catalog.DeliveryItem{{SKU: "a", Quantity: 2}}, gotBody.Items)
	assert.Len(t, options, 2)
	assert.Equal(t, "350", options[0].Price.String())
	assert.Equal(t, int64(45), options[0].ETA)
}

func TestDeliveryOptionsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","result":null}`))
	}))
	defer server.Close()

	client := NewPricingClient(fastClient(), server.URL)
	_, err := client.DeliveryOptions(context.Background(), deliveryRequest())

	var pricing *selection.PricingError
	assert.ErrorAs(t, err, &pricing)
	assert.Equal(t, "ph-1", pricing.SourceCode)
	assert.Equal(t, "error", pricing.Status)
}

func TestDeliveryOptionsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewPricingClient(fastClient(), server.URL)
	_, err := client.DeliveryOptions(context.Background(), deliveryRequest())

	var pricing *selection.PricingError
	assert.ErrorAs(t, err, &pricing)
}

func TestDeliveryOptionsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewPricingClient(fastClient(), server.URL)
	_, err := client.DeliveryOptions(context.Background(), deliveryRequest())

	var pricing *selection.PricingError
	assert.ErrorAs(t, err, &pricing)
	assert.Equal(t, http.StatusBadGateway, pricing.StatusCode)
}
