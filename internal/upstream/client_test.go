package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dostavka/selection-service/internal/upstream/ratelimit"
)

func TestPostJSONRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	body, status, err := fastClient().PostJSON(context.Background(), server.URL, map[string]string{"k": "v"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostJSONHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	start := time.Now()
	_, status, err := fastClient().PostJSON(context.Background(), server.URL, nil)
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(2), calls.Load())
	// The retry must wait out the server-demanded second instead of the
	// millisecond-scale exponential backoff the config would produce.
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestPostJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, status, err := fastClient().PostJSON(context.Background(), server.URL, nil)

	assert.Equal(t, http.StatusBadRequest, status)
	var fetch *ratelimit.FetchRetryError
	assert.ErrorAs(t, err, &fetch)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostJSONExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, _, err := fastClient().PostJSON(context.Background(), server.URL, nil)

	var fetch *ratelimit.FetchRetryError
	assert.ErrorAs(t, err, &fetch)
	// MaxRetries 1 means one initial attempt plus one retry.
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, fetch.Attempts)
}

func TestPostJSONSetsHeaders(t *testing.T) {
	var contentType, accept, agent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		accept = r.Header.Get("Accept")
		agent = r.Header.Get("User-Agent")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, _, err := fastClient().PostJSON(context.Background(), server.URL, nil)

	assert.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "application/json", accept)
	assert.Equal(t, userAgent, agent)
}

func TestPostJSONContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := fastClient().PostJSON(ctx, server.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
