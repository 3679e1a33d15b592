package camera

import (
	"context"
	"fmt"
	"os"
	"time"
)

// FrameSource captures stills by reading the latest encoded frame the
// capture pipeline writes to a well-known path. The pipeline (supervised
// helper or external) overwrites the file; we only ever read it.
type FrameSource struct {
	path   string
	maxAge time.Duration
}

// NewFrameSource builds a source over path. maxAge bounds how old a frame
// may be before Capture reports ErrStaleFrame; zero disables the check.
func NewFrameSource(path string, maxAge time.Duration) *FrameSource {
	return &FrameSource{path: path, maxAge: maxAge}
}

// Capture returns the current frame bytes.
func (s *FrameSource) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoFrame
		}
		return nil, fmt.Errorf("stat frame: %w", err)
	}
	if s.maxAge > 0 && time.Since(info.ModTime()) > s.maxAge {
		return nil, fmt.Errorf("%w (age %s)", ErrStaleFrame, time.Since(info.ModTime()).Round(time.Second))
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(data) == 0 {
		// Mid-write by the pipeline; treat as not-yet-available.
		return nil, ErrNoFrame
	}
	return data, nil
}
