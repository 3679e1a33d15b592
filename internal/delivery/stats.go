package delivery

import (
	"sync"
	"time"
)

// Stats holds process-wide delivery counters. Reset only by restart.
//
// Counters are monotonic and purely observational: status reporting and
// telemetry read them, nothing gates logic on them.
type Stats struct {
	mu sync.RWMutex

	sentTotal   uint64
	failedTotal uint64
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string

	pollCount         uint64
	commandsProcessed uint64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	SentTotal         uint64    `json:"sent_total"`
	FailedTotal       uint64    `json:"failed_total"`
	LastSuccess       time.Time `json:"last_success"`
	LastFailure       time.Time `json:"last_failure"`
	LastError         string    `json:"last_error,omitempty"`
	PollCount         uint64    `json:"poll_count"`
	CommandsProcessed uint64    `json:"commands_processed"`
}

// NewStats creates a zeroed counter set.
func NewStats() *Stats {
	return &Stats{}
}

// RecordSent records one successful delivery.
func (s *Stats) RecordSent(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentTotal++
	s.lastSuccess = at
}

// RecordFailure records one exhausted delivery.
func (s *Stats) RecordFailure(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedTotal++
	s.lastFailure = at
	if err != nil {
		s.lastError = err.Error()
	}
}

// IncPoll counts one main-loop poll tick.
func (s *Stats) IncPoll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollCount++
}

// IncCommand counts one processed command.
func (s *Stats) IncCommand() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandsProcessed++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		SentTotal:         s.sentTotal,
		FailedTotal:       s.failedTotal,
		LastSuccess:       s.lastSuccess,
		LastFailure:       s.lastFailure,
		LastError:         s.lastError,
		PollCount:         s.pollCount,
		CommandsProcessed: s.commandsProcessed,
	}
}
