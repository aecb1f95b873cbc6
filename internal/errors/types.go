package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TransientError represents a failure that a later, identical call could
// recover from (rate limits, upstream 5xx, network blips). The interpreter
// performs no retries itself; the classification exists so callers and logs
// can tell service trouble apart from bad requests.
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	RetryAfter int    // seconds, from a Retry-After header when present
	Message    string // human-friendly message
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents a failure retrying cannot fix (bad credentials,
// malformed request, missing resource).
type PermanentError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error is worth retrying at a higher layer.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	return isNetworkError(err)
}

// IsPermanent reports whether the error is explicitly non-retryable.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var permanentErr *PermanentError
	return errors.As(err, &permanentErr)
}

// FromHTTPStatus classifies an HTTP status into the taxonomy. The body is
// folded into the message so upstream error text survives to the logs.
func FromHTTPStatus(statusCode int, body []byte, header http.Header) error {
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(statusCode)
	}
	base := fmt.Errorf("http status %d: %s", statusCode, message)

	if isTransientHTTPStatus(statusCode) {
		retryAfter := parseRetryAfter(header)
		return &TransientError{Err: base, StatusCode: statusCode, RetryAfter: retryAfter}
	}
	return &PermanentError{Err: base, StatusCode: statusCode}
}

func parseRetryAfter(header http.Header) int {
	if header == nil {
		return 0
	}
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	seconds := 0
	if _, err := fmt.Sscanf(value, "%d", &seconds); err != nil {
		return 0
	}
	return seconds
}

func isTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"timeout",
		"deadline exceeded",
		"connection reset",
		"broken pipe",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// NewTransientError creates a transient error with a friendly message.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError creates a permanent error with a friendly message.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}
