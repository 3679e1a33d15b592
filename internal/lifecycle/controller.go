package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/chat"
	"github.com/aldermoor/sentrycam-core/internal/delivery"
	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
	"github.com/aldermoor/sentrycam-core/internal/provisioning"
)

// DefaultTick is the main loop's polling cadence.
const DefaultTick = 250 * time.Millisecond

// Logger is the narrow logging surface the controller needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sender delivers outbound chat messages. Satisfied by *delivery.Sender.
type Sender interface {
	Send(ctx context.Context, msg delivery.Message) error
}

// MessageHandler consumes inbound chat traffic during normal operation.
// Satisfied by *command.Router.
type MessageHandler interface {
	Handle(ctx context.Context, endpoint, text string)
	NotifyTimeout(ctx context.Context, endpoint string)
}

// Sweeper expires stale editing sessions. Satisfied by *session.Manager.
type Sweeper interface {
	Sweep() (endpoint string, ok bool)
}

// Connector joins the device to a network. Satisfied by netlink
// implementations.
type Connector interface {
	Connect(ctx context.Context, creds []deviceconfig.NetworkCredential) (string, error)
}

// Options carries the controller's collaborators and timings.
type Options struct {
	Store  *deviceconfig.Store
	Intake *provisioning.Intake
	Setup  provisioning.Transport
	Chat   chat.Source

	Handler   MessageHandler
	Sessions  Sweeper
	Sender    Sender
	Connector Connector
	Stats     *delivery.Stats
	Clock     delivery.Clock
	Logger    Logger

	// Tick defaults to DefaultTick.
	Tick time.Duration

	// ProvisioningTimeout bounds the provisioning phase.
	ProvisioningTimeout time.Duration

	// GraceDelay is the pause between a successful intake and the
	// restart, so the setup client can read the final status.
	GraceDelay time.Duration
}

// Controller owns the device's top-level state machine. It is the single
// mutator: bearer callbacks enqueue events and the controller consumes
// them once per tick, so no other goroutine ever touches config or
// session state.
type Controller struct {
	opts   Options
	logger Logger
	clock  delivery.Clock

	mu            sync.Mutex
	state         State
	restartReason string
	restartAsked  bool
}

// New builds a Controller. Store, Intake, Setup and Chat are required;
// everything else degrades gracefully when nil.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = delivery.NewClock()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.ProvisioningTimeout <= 0 {
		opts.ProvisioningTimeout = 5 * time.Minute
	}
	if opts.GraceDelay < 0 {
		opts.GraceDelay = 0
	}
	return &Controller{opts: opts, logger: opts.Logger, clock: opts.Clock}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RequestRestart asks the controller to return DecisionRestart at the
// next tick. Safe from any goroutine; wired into the chat restart command
// and the debug console.
func (c *Controller) RequestRestart(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.restartAsked {
		c.restartAsked = true
		c.restartReason = reason
	}
}

func (c *Controller) restartRequested() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restartReason, c.restartAsked
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.logger.Info("lifecycle transition", "from", prev.String(), "to", s.String())
}

// Run drives the state machine until the context is cancelled or a
// restart is needed. The caller owns the actual restart: tear down, then
// call Run again on a freshly built controller.
func (c *Controller) Run(ctx context.Context) (Decision, error) {
	if !c.opts.Store.Current().IsOperationValid() {
		c.setState(StateNeedConfig)
	} else {
		c.setState(StateNormalOperation)
	}
	return c.loop(ctx)
}

// loop dispatches the current state until a decision falls out.
func (c *Controller) loop(ctx context.Context) (Decision, error) {
	for {
		if ctx.Err() != nil {
			return DecisionShutdown, nil
		}

		switch c.State() {
		case StateNeedConfig:
			// Nothing to wait for; go straight to provisioning.
			c.setState(StateProvisioning)

		case StateProvisioning:
			return c.runProvisioning(ctx)

		case StateNormalOperation:
			return c.runNormal(ctx)

		default:
			s := c.State()
			c.logger.Error("fatal: dispatched unreachable lifecycle state", "state", s.String())
			return DecisionRestart, fmt.Errorf("%w: %s", ErrUnreachableState, s)
		}
	}
}

// runProvisioning owns the timed setup phase.
func (c *Controller) runProvisioning(ctx context.Context) (Decision, error) {
	opts := c.opts
	deadline := c.clock.Now().Add(opts.ProvisioningTimeout)

	if err := opts.Setup.Start(); err != nil {
		return DecisionRestart, fmt.Errorf("starting setup bearer: %w", err)
	}
	defer opts.Setup.Stop()

	c.notify(provisioning.StatusWaiting, "")

	// After a successful intake with no owner endpoint in the document,
	// the chat transport comes up and the first inbound message claims
	// the owner role.
	intakeDone := false
	chatUp := false
	claimArmed := false
	defer func() {
		if chatUp {
			_ = opts.Chat.Stop()
		}
	}()

	for {
		if ctx.Err() != nil {
			return DecisionShutdown, nil
		}

	setupEvents:
		for {
			select {
			case ev, ok := <-opts.Setup.Events():
				if !ok {
					break setupEvents
				}
				done, decision, err := c.handleSetupEvent(ctx, ev, &intakeDone, &chatUp)
				if done {
					return decision, err
				}
			default:
				break setupEvents
			}
		}

		if chatUp {
			select {
			case ev, ok := <-opts.Chat.Events():
				if ok && ev.Endpoint != "" {
					return c.claimOwner(ctx, ev.Endpoint)
				}
			default:
			}
		}

		// A successful intake that still needs an owner claim re-arms the
		// window once; the phase stays terminal-timed either way.
		if intakeDone && !claimArmed {
			claimArmed = true
			deadline = c.clock.Now().Add(opts.ProvisioningTimeout)
		}
		if c.clock.Now().After(deadline) {
			if intakeDone {
				c.logger.Error("owner claim window expired with no chat message")
			} else {
				c.logger.Error("provisioning window expired with no valid config")
			}
			return DecisionRestart, ErrProvisioningTimeout
		}

		if opts.Stats != nil {
			opts.Stats.IncPoll()
		}
		c.clock.Sleep(opts.Tick)
	}
}

// handleSetupEvent processes one setup bearer event. done is true when the
// phase is over and decision/err should be returned.
func (c *Controller) handleSetupEvent(ctx context.Context, ev provisioning.Event, intakeDone, chatUp *bool) (done bool, decision Decision, err error) {
	opts := c.opts

	switch ev.Kind {
	case provisioning.EventClientConnected:
		pin, err := opts.Store.RegeneratePIN(ctx)
		if err != nil {
			c.logger.Error("regenerating provisioning PIN", "error", err)
			return false, 0, nil
		}
		c.notify(provisioning.StatusConnectedPINReady, pin)

	case provisioning.EventPayload:
		status, applyErr := opts.Intake.Apply(ctx, ev.Payload)
		c.notify(status, "")
		if applyErr != nil {
			// Rejected payload; phase continues unchanged.
			return false, 0, nil
		}
		*intakeDone = true
		if opts.Store.Current().OwnerEndpoint != "" {
			d, gerr := c.graceRestart("provisioning complete")
			return true, d, gerr
		}
		if !*chatUp {
			if err := opts.Chat.Start(); err != nil {
				c.logger.Error("starting chat transport for owner claim", "error", err)
				return true, DecisionRestart, fmt.Errorf("starting chat transport: %w", err)
			}
			*chatUp = true
		}

	case provisioning.EventChatOpened:
		if *intakeDone && ev.Endpoint != "" {
			d, err := c.claimOwner(ctx, ev.Endpoint)
			return true, d, err
		}

	default:
		c.logger.Warn("unknown setup event", "kind", int(ev.Kind))
	}
	return false, 0, nil
}

// claimOwner records endpoint as the owner and finishes provisioning.
func (c *Controller) claimOwner(ctx context.Context, endpoint string) (Decision, error) {
	err := c.opts.Store.Update(ctx, func(cfg *deviceconfig.DeviceConfig) error {
		cfg.OwnerEndpoint = endpoint
		return nil
	})
	if err != nil {
		// Unsaved is tolerable here for the same reason as in intake.
		c.logger.Error("recording owner endpoint", "error", err)
	}
	c.logger.Info("owner endpoint claimed", "endpoint", endpoint)

	if c.opts.Sender != nil {
		msg := delivery.Message{Endpoint: endpoint, Content: "Setup complete. Restarting."}
		if err := c.opts.Sender.Send(ctx, msg); err != nil {
			c.logger.Warn("owner welcome delivery failed", "error", err)
		}
	}

	c.notify(provisioning.StatusChatOpened, "")
	return c.graceRestart("owner claimed")
}

// graceRestart waits the grace delay and returns the restart decision.
func (c *Controller) graceRestart(why string) (Decision, error) {
	c.logger.Info("scheduling restart", "reason", why, "grace", c.opts.GraceDelay)
	if c.opts.GraceDelay > 0 {
		c.clock.Sleep(c.opts.GraceDelay)
	}
	return DecisionRestart, nil
}

func (c *Controller) notify(status provisioning.Status, detail string) {
	if err := c.opts.Setup.NotifyStatus(status, detail); err != nil {
		c.logger.Warn("setup status notify failed", "status", string(status), "error", err)
	}
}

// runNormal owns steady-state operation.
func (c *Controller) runNormal(ctx context.Context) (Decision, error) {
	opts := c.opts
	cfg := opts.Store.Current()

	if opts.Connector != nil {
		network, err := opts.Connector.Connect(ctx, cfg.CredentialList())
		if err != nil {
			return DecisionRestart, fmt.Errorf("joining network: %w", err)
		}
		c.logger.Info("network joined", "network", network)
	}

	if err := opts.Chat.Start(); err != nil {
		return DecisionRestart, fmt.Errorf("starting chat transport: %w", err)
	}
	defer opts.Chat.Stop()

	c.sendStartupAlert(ctx, cfg)

	for {
		if ctx.Err() != nil {
			return DecisionShutdown, nil
		}
		if reason, asked := c.restartRequested(); asked {
			c.logger.Info("restart requested", "reason", reason)
			return DecisionRestart, nil
		}

	chatEvents:
		for {
			select {
			case ev, ok := <-opts.Chat.Events():
				if !ok {
					break chatEvents
				}
				if opts.Handler != nil {
					opts.Handler.Handle(ctx, ev.Endpoint, ev.Text)
				}
			default:
				break chatEvents
			}
		}

		if opts.Sessions != nil {
			if endpoint, expired := opts.Sessions.Sweep(); expired {
				c.logger.Info("editing session expired", "endpoint", endpoint)
				if opts.Handler != nil {
					opts.Handler.NotifyTimeout(ctx, endpoint)
				}
			}
		}

		if opts.Stats != nil {
			opts.Stats.IncPoll()
		}
		c.clock.Sleep(opts.Tick)
	}
}

// sendStartupAlert tells the owner the device is up, using the configured
// alert template. Delivery failure is counted, never fatal.
func (c *Controller) sendStartupAlert(ctx context.Context, cfg *deviceconfig.DeviceConfig) {
	if c.opts.Sender == nil || cfg.OwnerEndpoint == "" {
		return
	}

	name := cfg.DisplayName
	if name == "" {
		name = cfg.DeviceID
	}
	text := cfg.AlertTemplate
	if text == "" {
		text = "{name} is online."
	}
	text = strings.ReplaceAll(text, "{name}", name)

	msg := delivery.Message{Endpoint: cfg.OwnerEndpoint, Content: text}
	if err := c.opts.Sender.Send(ctx, msg); err != nil {
		c.logger.Warn("startup alert delivery failed", "error", err)
	}
}
