package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Transport issues GET requests against the remote content source.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Get must honor cancellation and deadlines; errors map onto
//   the package taxonomy (HTTPError, NetworkError, ErrEmptyResponse).
type Transport interface {
	// Get fetches the body at url. A successful call never returns an
	// empty body.
	Get(ctx context.Context, url string) ([]byte, error)
}

// GetFunc adapts a function to the Transport interface.
type GetFunc func(ctx context.Context, url string) ([]byte, error)

// Get calls f.
func (f GetFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPTransportConfig configures HTTPTransport.
type HTTPTransportConfig struct {
	// BaseURL is prepended to every endpoint path.
	BaseURL string

	// HTTPClient is the underlying client. Default: http.DefaultClient.
	// Per-request timeouts come from the context, not the client.
	HTTPClient *http.Client

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// HTTPTransport is the production Transport over net/http.
type HTTPTransport struct {
	config HTTPTransportConfig
	client *http.Client
}

// NewHTTPTransport creates a Transport backed by net/http.
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{config: config, client: client}
}

// Get fetches url relative to the configured base URL.
func (t *HTTPTransport) Get(ctx context.Context, url string) ([]byte, error) {
	full := t.config.BaseURL + url

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.config.UserAgent != "" {
		req.Header.Set("User-Agent", t.config.UserAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// Surface context outcomes as themselves so callers can
		// distinguish timeout from abort from network failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{URL: full, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{Status: resp.StatusCode, URL: full}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{URL: full, Err: err}
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	return body, nil
}

var _ Transport = (*HTTPTransport)(nil)
var _ Transport = (GetFunc)(nil)
