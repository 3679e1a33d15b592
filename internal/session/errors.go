package session

import "errors"

var (
	// ErrNoSession: no session is open, or the caller is not the endpoint
	// that opened it. Both cases deliberately read the same from outside.
	ErrNoSession = errors.New("session: no active session for this endpoint")

	// ErrAlreadyOpen: an open request arrived while a session exists.
	// Only one editing session may exist process-wide.
	ErrAlreadyOpen = errors.New("session: another editing session is already open")

	// ErrTimeout: the session sat idle past its deadline and was reset.
	ErrTimeout = errors.New("session: session timed out")

	// ErrEmptyValue is retryable; the session stays open awaiting input.
	ErrEmptyValue = errors.New("session: value must not be empty")

	// ErrValueTooLong is retryable; the session stays open awaiting input.
	ErrValueTooLong = errors.New("session: value exceeds maximum length")

	// ErrBadState: the operation is not valid in the current state
	// (confirm before a value was submitted, for example).
	ErrBadState = errors.New("session: operation not valid in current state")
)

// Retryable reports whether err leaves the session open for another try.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmptyValue) || errors.Is(err, ErrValueTooLong)
}
