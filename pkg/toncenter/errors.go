package toncenter

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRequestRejected means the request itself is wrong (bad filter, bad
	// address, out-of-range limit). Retrying without changing it is pointless.
	ErrRequestRejected = errors.New("request rejected")

	// ErrTransportFailure covers connectivity, timeouts, throttling, server
	// errors and undecodable responses. Every call except SendMessage is a
	// pure read, so callers may retry.
	ErrTransportFailure = errors.New("transport failure")
)

// APIError carries the HTTP status and message returned by TonCenter.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: HTTP %d from %s: %s", e.kind, e.StatusCode, e.URL, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

func newAPIError(status int, url, message string) *APIError {
	kind := ErrTransportFailure
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		kind = ErrRequestRejected
	}
	return &APIError{StatusCode: status, Message: message, URL: url, kind: kind}
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRequestRejected, fmt.Sprintf(format, args...))
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransportFailure, op, err)
}

// IsRetryable reports whether err is a transport failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransportFailure)
}
