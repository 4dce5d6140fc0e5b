package sfstream

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios
var (
	// ErrNotConnected is returned when an operation requires a handshake
	// that has not happened yet.
	ErrNotConnected = errors.New("sfstream: not connected")

	// ErrHandshakeFailed is returned when the server rejects a handshake.
	ErrHandshakeFailed = errors.New("sfstream: handshake failed")

	// ErrRetriesExhausted is returned by the re-subscribe layer when a
	// maximum attempt count is configured and reached.
	ErrRetriesExhausted = errors.New("sfstream: subscribe retries exhausted")
)

// StreamError wraps a protocol-level failure with the operation and channel
// it happened on. Layers intercept only the conditions they own; everything
// else is propagated as-is, so a StreamError always originates where the
// failure was first observed.
type StreamError struct {
	Op      string
	Channel string
	Reason  string
	Cause   error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("sfstream: ")
	b.WriteString(e.Op)
	if e.Channel != "" {
		fmt.Fprintf(&b, " %s", e.Channel)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsRetryableSubscribe reports whether a subscribe result describes transient
// server congestion, i.e. its failure reason carries the SERVER_UNAVAILABLE
// prefix. All other failure reasons are terminal.
func IsRetryableSubscribe(result Message) bool {
	return strings.HasPrefix(result.FailureReason(), ServerUnavailablePrefix)
}
