package source

import "net/http"

// Option configures an adapter at construction time.
type Option func(*options)

type options struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// WithBaseURL overrides the adapter's API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithAPIKey sets an API key for sources that accept one.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

func applyOptions(defaultBaseURL string, opts []Option) options {
	o := options{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
