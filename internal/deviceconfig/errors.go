package deviceconfig

import "errors"

// Domain errors for the deviceconfig package. Check with errors.Is().
var (
	// ErrUnknownField is returned when a field identifier is not in the
	// editable field registry.
	ErrUnknownField = errors.New("deviceconfig: unknown field")

	// ErrUnsaved is returned when a mutation was applied in memory but
	// could not be persisted. The in-memory state is kept; a later
	// explicit Flush retries the write.
	ErrUnsaved = errors.New("deviceconfig: config mutated but not persisted")

	// ErrLoadFailed is returned when the persisted snapshot cannot be read.
	// The store falls back to defaults in that case.
	ErrLoadFailed = errors.New("deviceconfig: loading persisted config failed")
)
