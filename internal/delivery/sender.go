package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Message is one logical outbound delivery.
type Message struct {
	// Endpoint is the chat endpoint identifier to deliver to.
	Endpoint string

	// Content is the message text.
	Content string

	// Markup is optional serialized interactive markup (menu buttons).
	Markup []byte
}

// Transport performs exactly one network send attempt. Retries and rate
// limiting live above it, in the Sender.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Logger is the narrow logging interface used by the Sender.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Policy fixes the reliability parameters for a Sender.
type Policy struct {
	// MinSpacing is the global minimum gap between any two sends. The
	// Sender blocks the caller until the spacing has elapsed; this is a
	// deliberate global rate limit, not per-endpoint.
	MinSpacing time.Duration

	// MaxAttempts bounds transport attempts per logical send.
	MaxAttempts int

	// BackoffStep is the linear backoff increment: the wait before
	// attempt n+1 is BackoffStep × n.
	BackoffStep time.Duration
}

// Sender wraps a one-shot Transport with rate limiting, bounded retry and
// failure accounting.
//
// Send is safe for concurrent use: the main loop and the debug console
// share one Sender, and a mutex serialises deliveries so at most one is
// in flight at a time and the global spacing baseline stays consistent.
// A send in flight blocks other callers through spacing and backoff by
// design.
type Sender struct {
	transport Transport
	clock     Clock
	policy    Policy
	stats     *Stats
	logger    Logger

	// mu serialises deliveries and guards lastSend.
	mu sync.Mutex

	// lastSend is the spacing baseline, advanced on success.
	lastSend time.Time
}

// NewSender creates a Sender over the given transport.
// A nil clock selects the real wall clock.
func NewSender(transport Transport, policy Policy, stats *Stats, clock Clock) *Sender {
	if clock == nil {
		clock = NewClock()
	}
	if stats == nil {
		stats = NewStats()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Sender{
		transport: transport,
		clock:     clock,
		policy:    policy,
		stats:     stats,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the sender.
func (s *Sender) SetLogger(logger Logger) {
	s.logger = logger
}

// Stats returns the counter set shared with status reporting.
func (s *Sender) Stats() *Stats {
	return s.stats
}

// Send delivers one logical message: waits out the global spacing, then
// attempts the transport up to the retry bound with linear backoff.
//
// On success the sent counter and the spacing baseline advance. On
// exhaustion the failed counter and last-error record advance and the
// returned error wraps ErrExhausted; the caller must treat that as
// non-fatal.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if msg.Endpoint == "" {
		return ErrEmptyEndpoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.waitSpacing()

	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("delivery aborted: %w", err)
		}

		err := s.transport.Send(ctx, msg)
		if err == nil {
			now := s.clock.Now()
			s.lastSend = now
			s.stats.RecordSent(now)
			s.logger.Debug("delivery ok", "endpoint", msg.Endpoint, "attempt", attempt)
			return nil
		}

		lastErr = err
		s.logger.Warn("delivery attempt failed",
			"endpoint", msg.Endpoint,
			"attempt", attempt,
			"error", err,
		)

		if attempt < s.policy.MaxAttempts {
			s.clock.Sleep(s.policy.BackoffStep * time.Duration(attempt))
		}
	}

	s.stats.RecordFailure(s.clock.Now(), lastErr)
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, s.policy.MaxAttempts, lastErr)
}

// waitSpacing blocks until the global minimum spacing since the last
// successful send has elapsed. Caller holds mu.
func (s *Sender) waitSpacing() {
	if s.lastSend.IsZero() || s.policy.MinSpacing <= 0 {
		return
	}
	elapsed := s.clock.Now().Sub(s.lastSend)
	if remaining := s.policy.MinSpacing - elapsed; remaining > 0 {
		s.clock.Sleep(remaining)
	}
}
