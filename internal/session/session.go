package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

// MaxValueLength bounds any value submitted through an editing session.
const MaxValueLength = 100

// DefaultTimeout is how long a session may sit open before it is reset.
const DefaultTimeout = 5 * time.Minute

// State is the editing session's position in its lifecycle.
type State int

const (
	// Idle: no session open.
	Idle State = iota

	// AwaitingValue: a field is selected; the next message from the
	// opening endpoint is taken as the candidate value.
	AwaitingValue

	// AwaitingConfirmation: a candidate value is staged; the opening
	// endpoint must confirm or cancel.
	AwaitingConfirmation
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingValue:
		return "awaiting_value"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome describes the session's view of a field after an operation, for
// the caller to render into a reply. Secret fields must be masked by the
// renderer; the Outcome carries real values.
type Outcome struct {
	Field     deviceconfig.Field
	Label     string
	Current   string
	Candidate string
	Secret    bool
}

// Manager is the single process-wide editing session. Two-step (submit then
// confirm) because the editable fields include network secrets and the
// messaging token; a mistyped value must be cancellable before it lands.
type Manager struct {
	store   *deviceconfig.Store
	timeout time.Duration
	now     func() time.Time

	mu        sync.Mutex
	state     State
	field     deviceconfig.Field
	endpoint  string
	candidate string
	openedAt  time.Time

	// expiredOwner is the opener of a session that timed out on a touch
	// before the sweep saw it; Sweep drains it so the timeout notice is
	// never lost.
	expiredOwner string
}

// NewManager builds a Manager over the config store. A nil now func uses
// the wall clock; a zero timeout uses DefaultTimeout.
func NewManager(store *deviceconfig.Store, timeout time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{store: store, timeout: timeout, now: now}
}

// Open starts a session editing field for endpoint. Role checks are the
// router's job; the manager only enforces single-session and FSM rules.
func (m *Manager) Open(field deviceconfig.Field, endpoint string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()

	if m.state != Idle {
		return Outcome{}, ErrAlreadyOpen
	}
	if !deviceconfig.IsEditable(field) {
		return Outcome{}, fmt.Errorf("%w: unknown field %q", ErrBadState, field)
	}

	m.state = AwaitingValue
	m.field = field
	m.endpoint = endpoint
	m.candidate = ""
	m.openedAt = m.now()
	return m.outcomeLocked(), nil
}

// Submit stages text as the candidate value. Empty and oversized input are
// retryable: the session stays in AwaitingValue.
func (m *Manager) Submit(text, endpoint string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardLocked(endpoint); err != nil {
		return Outcome{}, err
	}
	if m.state != AwaitingValue {
		return m.outcomeLocked(), ErrBadState
	}

	if text == "" {
		return m.outcomeLocked(), ErrEmptyValue
	}
	if len(text) > MaxValueLength {
		return m.outcomeLocked(), fmt.Errorf("%w (%d > %d)", ErrValueTooLong, len(text), MaxValueLength)
	}

	m.candidate = text
	m.state = AwaitingConfirmation
	return m.outcomeLocked(), nil
}

// Confirm applies the staged value through the config store and closes the
// session. A persist failure is reported through the store's unsaved
// mechanics, not here; the value is applied either way.
func (m *Manager) Confirm(ctx context.Context, endpoint string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardLocked(endpoint); err != nil {
		return Outcome{}, err
	}
	if m.state != AwaitingConfirmation {
		return m.outcomeLocked(), ErrBadState
	}

	field, value := m.field, m.candidate
	err := m.store.Update(ctx, func(cfg *deviceconfig.DeviceConfig) error {
		return deviceconfig.Apply(cfg, field, value)
	})

	out := m.outcomeLocked()
	out.Current = value
	m.resetLocked()
	return out, err
}

// Cancel discards the staged value and closes the session.
func (m *Manager) Cancel(endpoint string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.guardLocked(endpoint); err != nil {
		return Outcome{}, err
	}

	out := m.outcomeLocked()
	m.resetLocked()
	return out, nil
}

// ActiveFor reports whether a live session belongs to endpoint. The router
// uses this to divert the endpoint's traffic into the session.
func (m *Manager) ActiveFor(endpoint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	return m.state != Idle && m.endpoint == endpoint
}

// State returns the current FSM state, expiring a stale session first.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	return m.state
}

// Sweep force-expires a stale session and returns the endpoint that owned
// it, so the tick loop can notify the owner. A session that already
// expired on a touch since the last sweep is reported too. ok is false
// when nothing expired.
func (m *Manager) Sweep() (endpoint string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	if m.expiredOwner == "" {
		return "", false
	}
	endpoint = m.expiredOwner
	m.expiredOwner = ""
	return endpoint, true
}

// guardLocked enforces the endpoint invariant: only the opener may advance
// a session. Everyone else gets ErrNoSession, identical to the no-session
// case, so outsiders cannot probe whether a session exists.
func (m *Manager) guardLocked(endpoint string) error {
	if m.state != Idle && m.now().Sub(m.openedAt) > m.timeout {
		mine := m.endpoint == endpoint
		if !mine {
			// The owner was not the caller, so the timeout notice still
			// has to reach them via the sweep.
			m.expiredOwner = m.endpoint
		}
		m.resetLocked()
		if mine {
			return ErrTimeout
		}
		return ErrNoSession
	}
	if m.state == Idle || m.endpoint != endpoint {
		return ErrNoSession
	}
	return nil
}

func (m *Manager) expireLocked() {
	if m.state != Idle && m.now().Sub(m.openedAt) > m.timeout {
		m.expiredOwner = m.endpoint
		m.resetLocked()
	}
}

func (m *Manager) resetLocked() {
	m.state = Idle
	m.field = ""
	m.endpoint = ""
	m.candidate = ""
	m.openedAt = time.Time{}
}

func (m *Manager) outcomeLocked() Outcome {
	current, _ := deviceconfig.Value(m.store.Current(), m.field)
	return Outcome{
		Field:     m.field,
		Label:     m.field.Label(),
		Current:   current,
		Candidate: m.candidate,
		Secret:    m.field.IsSecret(),
	}
}
