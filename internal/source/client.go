package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single adapter HTTP request.
	DefaultTimeout = 10 * time.Second

	// userAgent identifies us to the polite pools of the academic APIs.
	userAgent = "refinery/1.0 (https://github.com/matsen/refinery)"
)

// client is the rate-limited HTTP plumbing shared by all adapters.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
}

// newClient builds a client limited to rps requests per second.
func newClient(rps float64) *client {
	return &client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		headers:    map[string]string{},
	}
}

// getJSON performs a rate-limited GET and decodes the JSON body into v.
// A 404 maps to ErrNotFound, a 429 to ErrRateLimited; other non-2xx
// statuses become an APIError.
func (c *client) getJSON(ctx context.Context, sourceName, rawURL string, params url.Values, v any) error {
	body, err := c.get(ctx, sourceName, rawURL, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrInvalidResponse, sourceName, err)
	}
	return nil
}

// get performs a rate-limited GET and returns the raw response body.
func (c *client) get(ctx context.Context, sourceName, rawURL string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, &APIError{
			Source:     sourceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", sourceName, err)
	}
	return body, nil
}

// notFoundToNil converts the not-found sentinel into the (nil, nil)
// Lookup contract: an absent work is a signal, not an error.
func notFoundToNil(c *Candidate, err error) (*Candidate, error) {
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
