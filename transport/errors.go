package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the remote source answers with a
// successful status but an empty body.
var ErrEmptyResponse = errors.New("transport: empty response body")

// HTTPError is a non-2xx response from the remote source.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("transport: http %d from %s", e.Status, e.URL)
}

// NetworkError wraps a transport-level failure (DNS, connection reset,
// TLS) that never produced an HTTP response.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("transport: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether an error is worth retrying: network
// failures, timeouts, 5xx responses, and 429. Other 4xx responses and
// aborted requests are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if Aborted(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500 || httpErr.Status == 429
	}

	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Aborted reports whether an error is a caller-initiated cancellation.
func Aborted(err error) bool {
	return errors.Is(err, context.Canceled)
}
