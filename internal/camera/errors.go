package camera

import "errors"

var (
	// ErrNoFrame: the capture pipeline has not produced a frame yet.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrStaleFrame: a frame exists but is older than the freshness
	// window, so the pipeline is probably wedged.
	ErrStaleFrame = errors.New("camera: frame is stale")

	// ErrHelperRunning: the capture helper is already supervised.
	ErrHelperRunning = errors.New("camera: capture helper already running")
)
