package lifecycle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/chat"
	"github.com/aldermoor/sentrycam-core/internal/delivery"
	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
	"github.com/aldermoor/sentrycam-core/internal/provisioning"
)

type memRepo struct{ data map[string]string }

func (r *memRepo) Load(ctx context.Context) (map[string]string, error) { return r.data, nil }
func (r *memRepo) Save(ctx context.Context, data map[string]string) error {
	r.data = data
	return nil
}

// fakeClock advances instantly on Sleep so timed loops run in test time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type statusRecord struct {
	status provisioning.Status
	detail string
}

type fakeSetup struct {
	mu       sync.Mutex
	events   chan provisioning.Event
	statuses []statusRecord
	started  bool
}

func newFakeSetup() *fakeSetup {
	return &fakeSetup{events: make(chan provisioning.Event, 16)}
}

func (f *fakeSetup) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeSetup) Stop() error { return nil }

func (f *fakeSetup) Events() <-chan provisioning.Event { return f.events }

func (f *fakeSetup) NotifyStatus(status provisioning.Status, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusRecord{status, detail})
	return nil
}

func (f *fakeSetup) sawStatus(want provisioning.Status) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.statuses {
		if s.status == want {
			return true
		}
	}
	return false
}

type fakeChat struct {
	events  chan chat.Event
	started bool
	mu      sync.Mutex
}

func newFakeChat() *fakeChat {
	return &fakeChat{events: make(chan chat.Event, 16)}
}

func (f *fakeChat) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeChat) Stop() error { return nil }

func (f *fakeChat) Events() <-chan chat.Event { return f.events }

type recordingSender struct {
	mu   sync.Mutex
	sent []delivery.Message
}

func (s *recordingSender) Send(ctx context.Context, msg delivery.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []delivery.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery.Message(nil), s.sent...)
}

type recordingHandler struct {
	mu       sync.Mutex
	handled  []chat.Event
	timeouts []string
}

func (h *recordingHandler) Handle(ctx context.Context, endpoint, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, chat.Event{Endpoint: endpoint, Text: text})
}

func (h *recordingHandler) NotifyTimeout(ctx context.Context, endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeouts = append(h.timeouts, endpoint)
}

const testToken = "0123456789012345678901234567890123456789abcd"

type harness struct {
	store   *deviceconfig.Store
	setup   *fakeSetup
	chat    *fakeChat
	sender  *recordingSender
	handler *recordingHandler
	clock   *fakeClock
	ctrl    *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		setup:   newFakeSetup(),
		chat:    newFakeChat(),
		sender:  &recordingSender{},
		handler: &recordingHandler{},
		clock:   newFakeClock(),
	}
	h.store = deviceconfig.NewStore(&memRepo{})
	if err := h.store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	h.ctrl = New(Options{
		Store:               h.store,
		Intake:              provisioning.NewIntake(h.store, nil),
		Setup:               h.setup,
		Chat:                h.chat,
		Handler:             h.handler,
		Sender:              h.sender,
		Stats:               delivery.NewStats(),
		Clock:               h.clock,
		ProvisioningTimeout: 5 * time.Minute,
		GraceDelay:          2 * time.Second,
	})
	return h
}

// provision makes the stored config operation-valid.
func (h *harness) provision(t *testing.T) {
	t.Helper()
	err := h.store.Update(context.Background(), func(cfg *deviceconfig.DeviceConfig) error {
		cfg.DisplayName = "Porch Cam"
		cfg.Networks[0] = deviceconfig.NetworkCredential{Name: "Home", Secret: "pw"}
		cfg.AuthToken = testToken
		cfg.OwnerEndpoint = "100"
		cfg.AlertTemplate = "{name} watching"
		cfg.Provisioned = true
		return nil
	})
	if err != nil {
		t.Fatalf("provisioning store: %v", err)
	}
}

func runController(t *testing.T, c *Controller, ctx context.Context) (Decision, error) {
	t.Helper()
	type result struct {
		d   Decision
		err error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := c.Run(ctx)
		ch <- result{d, err}
	}()
	select {
	case r := <-ch:
		return r.d, r.err
	case <-time.After(10 * time.Second):
		t.Fatal("controller did not return")
		return 0, nil
	}
}

func TestBootsIntoProvisioningWhenConfigInvalid(t *testing.T) {
	h := newHarness(t)
	before := h.store.Version()

	h.setup.events <- provisioning.Event{
		Kind: provisioning.EventPayload,
		Payload: []byte(`{"networkName":"Home","networkSecret":"pw123456",` +
			`"authToken":"` + testToken + `","ownerEndpoint":"100"}`),
	}

	d, err := runController(t, h.ctrl, context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if d != DecisionRestart {
		t.Errorf("decision = %v, want restart", d)
	}
	if !h.setup.sawStatus(provisioning.StatusWaiting) {
		t.Error("waiting status never emitted")
	}
	if !h.setup.sawStatus(provisioning.StatusConfigReceived) {
		t.Error("success status never emitted")
	}

	cfg := h.store.Current()
	if !cfg.Provisioned {
		t.Error("config not provisioned")
	}
	if cfg.OwnerEndpoint != "100" {
		t.Errorf("OwnerEndpoint = %q", cfg.OwnerEndpoint)
	}
	if h.store.Version() != before+1 {
		t.Errorf("Version = %d, want %d", h.store.Version(), before+1)
	}
}

func TestProvisioningTimeout(t *testing.T) {
	h := newHarness(t)

	d, err := runController(t, h.ctrl, context.Background())
	if !errors.Is(err, ErrProvisioningTimeout) {
		t.Errorf("Run() error = %v, want ErrProvisioningTimeout", err)
	}
	if d != DecisionRestart {
		t.Errorf("decision = %v, want restart", d)
	}
	if h.store.Current().Provisioned {
		t.Error("config provisioned with no intake")
	}
}

func TestClientConnectedRegeneratesPIN(t *testing.T) {
	h := newHarness(t)
	oldPIN := h.store.Current().PIN

	h.setup.events <- provisioning.Event{Kind: provisioning.EventClientConnected}
	h.setup.events <- provisioning.Event{
		Kind: provisioning.EventPayload,
		Payload: []byte(`{"networkName":"Home","networkSecret":"pw",` +
			`"authToken":"` + testToken + `","ownerEndpoint":"100"}`),
	}

	if _, err := runController(t, h.ctrl, context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	h.setup.mu.Lock()
	var pinDetail string
	for _, s := range h.setup.statuses {
		if s.status == provisioning.StatusConnectedPINReady {
			pinDetail = s.detail
		}
	}
	h.setup.mu.Unlock()

	if len(pinDetail) != deviceconfig.PINLength {
		t.Errorf("PIN detail = %q, want %d digits", pinDetail, deviceconfig.PINLength)
	}
	if pinDetail == oldPIN {
		t.Error("PIN was not regenerated on client connect")
	}
}

func TestRejectedPayloadKeepsProvisioning(t *testing.T) {
	h := newHarness(t)

	h.setup.events <- provisioning.Event{Kind: provisioning.EventPayload, Payload: []byte(`{broken`)}
	h.setup.events <- provisioning.Event{Kind: provisioning.EventPayload, Payload: []byte(`{"networkName":"Home"}`)}
	h.setup.events <- provisioning.Event{
		Kind: provisioning.EventPayload,
		Payload: []byte(`{"networkName":"Home","networkSecret":"pw",` +
			`"authToken":"` + testToken + `","ownerEndpoint":"100"}`),
	}

	d, err := runController(t, h.ctrl, context.Background())
	if err != nil || d != DecisionRestart {
		t.Fatalf("Run() = (%v, %v), want (restart, nil)", d, err)
	}
	if !h.setup.sawStatus(provisioning.StatusErrInvalidPayload) {
		t.Error("invalid-payload status never emitted")
	}
	if !h.setup.sawStatus(provisioning.StatusErrMissingFields) {
		t.Error("missing-fields status never emitted")
	}
	if !h.store.Current().Provisioned {
		t.Error("valid payload after rejects did not provision")
	}
}

func TestOwnerClaimedViaChat(t *testing.T) {
	h := newHarness(t)

	h.setup.events <- provisioning.Event{
		Kind:    provisioning.EventPayload,
		Payload: []byte(`{"networkName":"Home","networkSecret":"pw","authToken":"` + testToken + `"}`),
	}
	h.chat.events <- chat.Event{Endpoint: "555", Text: "/start"}

	d, err := runController(t, h.ctrl, context.Background())
	if err != nil || d != DecisionRestart {
		t.Fatalf("Run() = (%v, %v), want (restart, nil)", d, err)
	}

	if got := h.store.Current().OwnerEndpoint; got != "555" {
		t.Errorf("OwnerEndpoint = %q, want %q", got, "555")
	}
	if !h.setup.sawStatus(provisioning.StatusChatOpened) {
		t.Error("chat-opened status never emitted")
	}

	msgs := h.sender.messages()
	if len(msgs) == 0 || msgs[0].Endpoint != "555" {
		t.Errorf("owner welcome = %+v, want message to 555", msgs)
	}
}

func TestOwnerClaimWindowIsBounded(t *testing.T) {
	// A valid document without an owner endpoint re-arms the window for
	// the chat claim; if no message ever arrives the phase still times
	// out instead of parking the device in provisioning forever.
	h := newHarness(t)

	h.setup.events <- provisioning.Event{
		Kind:    provisioning.EventPayload,
		Payload: []byte(`{"networkName":"Home","networkSecret":"pw","authToken":"` + testToken + `"}`),
	}

	d, err := runController(t, h.ctrl, context.Background())
	if !errors.Is(err, ErrProvisioningTimeout) {
		t.Fatalf("Run() error = %v, want ErrProvisioningTimeout", err)
	}
	if d != DecisionRestart {
		t.Errorf("decision = %v, want restart", d)
	}

	if !h.setup.sawStatus(provisioning.StatusConfigReceived) {
		t.Error("success status never emitted")
	}
	cfg := h.store.Current()
	if !cfg.Provisioned {
		t.Error("valid intake did not provision")
	}
	if cfg.OwnerEndpoint != "" {
		t.Errorf("OwnerEndpoint = %q, want empty with no claim", cfg.OwnerEndpoint)
	}
}

func TestNormalOperation(t *testing.T) {
	h := newHarness(t)
	h.provision(t)

	h.chat.events <- chat.Event{Endpoint: "100", Text: "/status"}

	// Ask for a restart once the loop has had time to drain the event.
	go func() {
		deadline := time.After(5 * time.Second)
		for {
			h.handler.mu.Lock()
			n := len(h.handler.handled)
			h.handler.mu.Unlock()
			if n > 0 {
				h.ctrl.RequestRestart("test")
				return
			}
			select {
			case <-deadline:
				h.ctrl.RequestRestart("deadline")
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	d, err := runController(t, h.ctrl, context.Background())
	if err != nil || d != DecisionRestart {
		t.Fatalf("Run() = (%v, %v), want (restart, nil)", d, err)
	}

	// Startup alert used the template and went to the owner.
	msgs := h.sender.messages()
	if len(msgs) == 0 {
		t.Fatal("no startup alert sent")
	}
	if msgs[0].Endpoint != "100" {
		t.Errorf("alert endpoint = %q, want owner", msgs[0].Endpoint)
	}
	if !strings.Contains(msgs[0].Content, "Porch Cam") {
		t.Errorf("alert = %q, want template with display name", msgs[0].Content)
	}

	h.handler.mu.Lock()
	defer h.handler.mu.Unlock()
	if len(h.handler.handled) == 0 || h.handler.handled[0].Text != "/status" {
		t.Errorf("handled = %+v, want the /status message", h.handler.handled)
	}
}

func TestShutdownOnContextCancel(t *testing.T) {
	h := newHarness(t)
	h.provision(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	d, err := runController(t, h.ctrl, ctx)
	if err != nil {
		t.Errorf("Run() error = %v, want nil on shutdown", err)
	}
	if d != DecisionShutdown {
		t.Errorf("decision = %v, want shutdown", d)
	}
}

func TestUnreachableStateIsFatal(t *testing.T) {
	for _, s := range []State{StatePinConfigPhase, StateGroupWaitPhase} {
		h := newHarness(t)
		h.ctrl.setState(s)

		d, err := h.ctrl.loop(context.Background())
		if !errors.Is(err, ErrUnreachableState) {
			t.Errorf("loop(%v) error = %v, want ErrUnreachableState", s, err)
		}
		if d != DecisionRestart {
			t.Errorf("loop(%v) decision = %v, want restart", s, d)
		}
	}
}
