package discovery

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound signals an expected absence: the target process is not
// running, has no listening ports, or none of its ports speaks the RPC
// protocol. Callers are expected to show a degraded state and retry on the
// next cycle rather than treat this as a failure.
var ErrNotFound = errors.New("language server not found")

// NetworkError is returned when a confirmed endpoint was reached but the
// status RPC failed: connection error, timeout, or a non-2xx response.
type NetworkError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// Error renders the failure with enough context to diagnose whether the
// endpoint was wrong entirely (404) or present but erroring.
func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("status RPC to %s failed: %v", e.URL, e.Err)
	case e.StatusCode == http.StatusNotFound:
		return fmt.Sprintf("status RPC path not found (404): %s", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("status RPC to %s failed (status %d): %s", e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("status RPC to %s failed", e.URL)
	}
}

// Unwrap exposes the underlying transport error, if any.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err represents an expected-absence outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
