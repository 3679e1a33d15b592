package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

type memRepo struct{ data map[string]string }

func (r *memRepo) Load(ctx context.Context) (map[string]string, error) { return r.data, nil }
func (r *memRepo) Save(ctx context.Context, data map[string]string) error {
	r.data = data
	return nil
}

type fixture struct {
	store *deviceconfig.Store
	mgr   *Manager
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.store = deviceconfig.NewStore(&memRepo{})
	if err := f.store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	f.mgr = NewManager(f.store, DefaultTimeout, func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

const (
	owner    = "1001"
	intruder = "2002"
)

func TestOpenSubmitConfirm(t *testing.T) {
	f := newFixture(t)
	before := f.store.Version()

	out, err := f.mgr.Open(deviceconfig.FieldAlertTemplate, owner)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if out.Label == "" {
		t.Error("Open() returned empty label")
	}
	if f.mgr.State() != AwaitingValue {
		t.Fatalf("state = %v, want AwaitingValue", f.mgr.State())
	}

	out, err = f.mgr.Submit("Intruder!", owner)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Candidate != "Intruder!" {
		t.Errorf("Candidate = %q", out.Candidate)
	}
	if f.mgr.State() != AwaitingConfirmation {
		t.Fatalf("state = %v, want AwaitingConfirmation", f.mgr.State())
	}

	if _, err := f.mgr.Confirm(context.Background(), owner); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if f.mgr.State() != Idle {
		t.Errorf("state = %v, want Idle after confirm", f.mgr.State())
	}
	if got := f.store.Current().AlertTemplate; got != "Intruder!" {
		t.Errorf("AlertTemplate = %q, want %q", got, "Intruder!")
	}
	if got := f.store.Version(); got != before+1 {
		t.Errorf("Version = %d, want %d", got, before+1)
	}
}

func TestCancelDiscardsCandidate(t *testing.T) {
	f := newFixture(t)
	wantTemplate := f.store.Current().AlertTemplate

	if _, err := f.mgr.Open(deviceconfig.FieldAlertTemplate, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := f.mgr.Submit("discard me", owner); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := f.mgr.Cancel(owner); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if f.mgr.State() != Idle {
		t.Errorf("state = %v, want Idle", f.mgr.State())
	}
	if got := f.store.Current().AlertTemplate; got != wantTemplate {
		t.Errorf("AlertTemplate mutated to %q on cancel", got)
	}
}

func TestWrongEndpointAlwaysNoSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// AwaitingValue.
	if _, err := f.mgr.Submit("sneaky", intruder); !errors.Is(err, ErrNoSession) {
		t.Errorf("Submit(intruder) error = %v, want ErrNoSession", err)
	}

	if _, err := f.mgr.Submit("legit", owner); err != nil {
		t.Fatalf("Submit(owner) error = %v", err)
	}

	// AwaitingConfirmation.
	if _, err := f.mgr.Confirm(context.Background(), intruder); !errors.Is(err, ErrNoSession) {
		t.Errorf("Confirm(intruder) error = %v, want ErrNoSession", err)
	}
	if _, err := f.mgr.Cancel(intruder); !errors.Is(err, ErrNoSession) {
		t.Errorf("Cancel(intruder) error = %v, want ErrNoSession", err)
	}

	// The intruder's attempts must not have perturbed the session.
	if f.mgr.State() != AwaitingConfirmation {
		t.Errorf("state = %v, want AwaitingConfirmation", f.mgr.State())
	}
	if _, err := f.mgr.Confirm(context.Background(), owner); err != nil {
		t.Errorf("Confirm(owner) error = %v", err)
	}
}

func TestIdleOperationsFail(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.Submit("x", owner); !errors.Is(err, ErrNoSession) {
		t.Errorf("Submit() error = %v, want ErrNoSession", err)
	}
	if _, err := f.mgr.Confirm(context.Background(), owner); !errors.Is(err, ErrNoSession) {
		t.Errorf("Confirm() error = %v, want ErrNoSession", err)
	}
	if _, err := f.mgr.Cancel(owner); !errors.Is(err, ErrNoSession) {
		t.Errorf("Cancel() error = %v, want ErrNoSession", err)
	}
}

func TestSecondOpenRejected(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := f.mgr.Open(deviceconfig.FieldAlertTemplate, owner); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open() error = %v, want ErrAlreadyOpen", err)
	}
	if _, err := f.mgr.Open(deviceconfig.FieldAlertTemplate, intruder); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open(intruder) error = %v, want ErrAlreadyOpen", err)
	}
}

func TestSubmitValidationRetryable(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	_, err := f.mgr.Submit("", owner)
	if !errors.Is(err, ErrEmptyValue) {
		t.Errorf("Submit(empty) error = %v, want ErrEmptyValue", err)
	}
	if !Retryable(err) {
		t.Error("empty value error should be retryable")
	}
	if f.mgr.State() != AwaitingValue {
		t.Errorf("state = %v, want AwaitingValue after retryable error", f.mgr.State())
	}

	_, err = f.mgr.Submit(strings.Repeat("x", MaxValueLength+1), owner)
	if !errors.Is(err, ErrValueTooLong) {
		t.Errorf("Submit(oversize) error = %v, want ErrValueTooLong", err)
	}
	if f.mgr.State() != AwaitingValue {
		t.Errorf("state = %v, want AwaitingValue after retryable error", f.mgr.State())
	}

	// Exactly at the limit is fine.
	if _, err := f.mgr.Submit(strings.Repeat("x", MaxValueLength), owner); err != nil {
		t.Errorf("Submit(at limit) error = %v", err)
	}
}

func TestTimeoutOnNextTouch(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f.advance(DefaultTimeout + time.Second)

	_, err := f.mgr.Submit("late", owner)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Submit() after timeout error = %v, want ErrTimeout", err)
	}
	if f.mgr.State() != Idle {
		t.Errorf("state = %v, want Idle after timeout", f.mgr.State())
	}
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	if _, ok := f.mgr.Sweep(); ok {
		t.Error("Sweep() on idle manager reported an expiry")
	}

	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := f.mgr.Sweep(); ok {
		t.Error("Sweep() expired a fresh session")
	}

	f.advance(DefaultTimeout + time.Second)
	endpoint, ok := f.mgr.Sweep()
	if !ok || endpoint != owner {
		t.Errorf("Sweep() = (%q, %v), want (%q, true)", endpoint, ok, owner)
	}
	if f.mgr.State() != Idle {
		t.Errorf("state = %v, want Idle after sweep", f.mgr.State())
	}
}

func TestActiveFor(t *testing.T) {
	f := newFixture(t)
	if f.mgr.ActiveFor(owner) {
		t.Error("ActiveFor() = true with no session")
	}
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !f.mgr.ActiveFor(owner) {
		t.Error("ActiveFor(owner) = false with open session")
	}
	if f.mgr.ActiveFor(intruder) {
		t.Error("ActiveFor(intruder) = true")
	}

	f.advance(DefaultTimeout + time.Second)
	if f.mgr.ActiveFor(owner) {
		t.Error("ActiveFor(owner) = true after timeout")
	}
}

func TestExpiryOnTouchStillSweeps(t *testing.T) {
	// A touch (ActiveFor, State, a guard) can expire the session before
	// the periodic sweep runs; the owner's timeout notice must survive
	// that and come out of the next Sweep.
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f.advance(DefaultTimeout + time.Second)

	if f.mgr.ActiveFor(owner) {
		t.Fatal("ActiveFor(owner) = true after timeout")
	}
	endpoint, ok := f.mgr.Sweep()
	if !ok || endpoint != owner {
		t.Errorf("Sweep() after touch-expiry = (%q, %v), want (%q, true)", endpoint, ok, owner)
	}
	if _, ok := f.mgr.Sweep(); ok {
		t.Error("second Sweep() reported the same expiry again")
	}
}

func TestOwnerTimeoutReplyNotDoubled(t *testing.T) {
	// When the owner's own message trips the timeout, they get ErrTimeout
	// directly; the sweep must not notify them a second time.
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f.advance(DefaultTimeout + time.Second)

	if _, err := f.mgr.Submit("late", owner); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Submit() error = %v, want ErrTimeout", err)
	}
	if _, ok := f.mgr.Sweep(); ok {
		t.Error("Sweep() reported an expiry the owner already saw")
	}
}

func TestNonOwnerTimeoutTripQueuesOwnerNotice(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.Open(deviceconfig.FieldDisplayName, owner); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f.advance(DefaultTimeout + time.Second)

	if _, err := f.mgr.Submit("x", intruder); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Submit() from intruder error = %v, want ErrNoSession", err)
	}
	endpoint, ok := f.mgr.Sweep()
	if !ok || endpoint != owner {
		t.Errorf("Sweep() = (%q, %v), want (%q, true)", endpoint, ok, owner)
	}
}
