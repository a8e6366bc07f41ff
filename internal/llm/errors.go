package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ErrUnavailable is the single condition the core sees when the generation
// service could not produce a completion. Callers must recover with their
// deterministic fallback path, never surface this to the end user.
var ErrUnavailable = errors.New("generation unavailable")

// FailureReason distinguishes why the gateway gave up. Callers treat both
// identically; the gateway logs them distinctly.
type FailureReason string

const (
	ReasonRejected  FailureReason = "rejected"  // service reachable but refused the request
	ReasonTransport FailureReason = "transport" // service unreachable, timed out, or circuit open
)

// UnavailableError carries the failure reason and the last underlying error.
type UnavailableError struct {
	Reason FailureReason
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("generation unavailable (%s): %v", e.Reason, e.Err)
}

// Unwrap makes errors.Is(err, ErrUnavailable) hold for every gateway failure.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// classifyFailure maps a provider error to a failure reason.
func classifyFailure(err error) FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonTransport
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ReasonRejected
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return ReasonRejected
		}
		return ReasonTransport
	}

	return ReasonTransport
}
