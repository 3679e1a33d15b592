package delivery

import "time"

// Clock abstracts wall-clock reads and sleeping so the spacing and backoff
// policy is unit-testable without real waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// realClock is the production Clock.
type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewClock returns the production wall clock.
func NewClock() Clock {
	return realClock{}
}
