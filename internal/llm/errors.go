package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	calerrors "calagent/internal/errors"
)

// wrapRequestError classifies transport-level failures. Context cancellation
// passes through untouched so callers can still match on context.Canceled.
func wrapRequestError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if calerrors.IsTransient(err) {
		return calerrors.NewTransientError(err, "completion service is unreachable")
	}
	return fmt.Errorf("completion request: %w", err)
}

// mapHTTPError converts a non-2xx completion response into the shared
// transient/permanent taxonomy.
func mapHTTPError(statusCode int, body []byte, header http.Header) error {
	return calerrors.FromHTTPStatus(statusCode, body, header)
}
