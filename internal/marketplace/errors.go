package marketplace

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport wraps failures that happened before a response was read.
	ErrTransport = errors.New("marketplace: transport failure")
	// ErrInvalidPayload marks responses that do not match the expected schema.
	ErrInvalidPayload = errors.New("marketplace: invalid payload")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
	Path    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d %s", e.Path, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// IsRetryable classifies an error returned by the client.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, ErrInvalidPayload) {
		return false
	}
	return errors.Is(err, ErrTransport)
}
