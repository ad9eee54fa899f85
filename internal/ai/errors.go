// Package ai holds the error taxonomy shared by every translation provider.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrConfiguration means the provider cannot be called at all (missing API key).
	// It is fatal for the whole request; no partial work is attempted.
	ErrConfiguration = errors.New("ai provider not configured")
	// ErrTransport covers network failures and timeouts.
	ErrTransport = errors.New("ai provider unreachable")
	// ErrProvider covers non-success HTTP responses.
	ErrProvider = errors.New("ai provider returned an error")
	// ErrInvalidResponse means a success response lacked the expected structure.
	ErrInvalidResponse = errors.New("ai provider returned invalid response")
)

// ProviderError carries the HTTP status and the provider's own error message.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider returned status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrProvider) match any *ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// Retryable reports whether a caller could reasonably try again later.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ClassifyError maps transport-level errors to ErrTransport, keeping the cause.
func ClassifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: timeout: %w", ErrTransport, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: timeout: %w", ErrTransport, err)
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}
