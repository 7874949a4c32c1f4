// Package upstream implements the two collaborator clients of the selection
// pipeline: the inventory search service and the delivery pricing service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dostavka/selection-service/internal/upstream/ratelimit"
)

const userAgent = "Dostavka-SelectionService/1.0"

// Client is a JSON HTTP client with rate limiting and retry logic shared by
// both upstream clients.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	config     ratelimit.Config
}

// NewClient creates a client with the given rate limit config and request
// timeout.
func NewClient(config ratelimit.Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    ratelimit.NewLimiter(config),
		config:     config,
	}
}

// NewClientDefault creates a client with default rate limiting.
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig(), 30*time.Second)
}

// PostJSON sends the payload as JSON and returns the response body and
// status code. Retryable statuses and transport failures are retried with
// exponential backoff; the request body is rebuilt per attempt.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
	}

	var lastStatus int
	var lastRetryAfter string
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := ratelimit.CalculateBackoff(attempt-1, c.config)
			if lastStatus == http.StatusTooManyRequests {
				backoff = ratelimit.CalculateRateLimitBackoff(attempt-1, c.config, lastRetryAfter)
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, lastStatus, ctx.Err()
			}
		}
		c.limiter.Throttle()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			lastErr = err
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastStatus = resp.StatusCode
		lastRetryAfter = resp.Header.Get("Retry-After")

		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, resp.StatusCode, nil
		}
		if !ratelimit.IsRetryableStatus(resp.StatusCode) {
			return data, resp.StatusCode, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: resp.StatusCode,
			}
		}
		lastErr = nil
	}

	return nil, lastStatus, &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}
