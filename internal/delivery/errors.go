package delivery

import "errors"

// Domain errors for the delivery package. Check with errors.Is().
var (
	// ErrExhausted is returned when every transport attempt for one
	// logical send has failed. Callers surface it to statistics and
	// status reporting; it is never a crash condition.
	ErrExhausted = errors.New("delivery: retries exhausted")

	// ErrEmptyEndpoint is returned when a send targets no endpoint.
	ErrEmptyEndpoint = errors.New("delivery: endpoint cannot be empty")
)
