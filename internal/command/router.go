package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/delivery"
	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
	"github.com/aldermoor/sentrycam-core/internal/session"
)

// Sender delivers replies. Satisfied by *delivery.Sender.
type Sender interface {
	Send(ctx context.Context, msg delivery.Message) error
}

// Camera produces a still frame on demand.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Logger is the narrow logging surface the router needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Router interprets inbound chat messages: role derivation, command
// parsing, gating, and diversion into an open editing session. All replies
// go back through the delivery layer; a failed reply is logged and counted
// but never escalated.
type Router struct {
	store    *deviceconfig.Store
	sessions *session.Manager
	sender   Sender
	camera   Camera
	stats    *delivery.Stats
	logger   Logger

	restart   func(reason string)
	startedAt time.Time
	version   string
}

// Options carries the router's collaborators.
type Options struct {
	Store    *deviceconfig.Store
	Sessions *session.Manager
	Sender   Sender
	Camera   Camera
	Stats    *delivery.Stats
	Logger   Logger

	// RequestRestart asks the lifecycle for a clean restart. Nil disables
	// the restart and save commands' restart step.
	RequestRestart func(reason string)

	// Version is reported by the info command.
	Version string
}

// NewRouter builds a Router. Store, Sessions and Sender are required.
func NewRouter(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	restart := opts.RequestRestart
	if restart == nil {
		restart = func(string) {}
	}
	return &Router{
		store:     opts.Store,
		sessions:  opts.Sessions,
		sender:    opts.Sender,
		camera:    opts.Camera,
		stats:     opts.Stats,
		logger:    logger,
		restart:   restart,
		startedAt: time.Now(),
		version:   opts.Version,
	}
}

// Handle processes one inbound chat message from endpoint. It never
// returns an error: every failure mode is either a reply to the caller or
// a log line.
func (r *Router) Handle(ctx context.Context, endpoint, text string) {
	cfg := r.store.Current()

	// An open session captures all traffic from its endpoint, so free
	// text can be entered without a command prefix.
	if r.sessions.ActiveFor(endpoint) {
		r.handleSessionMessage(ctx, endpoint, text)
		return
	}

	req, isCommand := Parse(text)
	if !isCommand {
		r.reply(ctx, endpoint, r.helpText(DeriveRole(cfg, endpoint)), Markup{})
		return
	}
	if !req.ForDevice(cfg.DeviceID) {
		// Another device on the shared channel was addressed.
		return
	}

	if r.stats != nil {
		r.stats.IncCommand()
	}

	role := DeriveRole(cfg, endpoint)
	if !Known(req.Name) {
		r.reply(ctx, endpoint, r.helpText(role), Markup{})
		return
	}
	if !Allowed(role, req.Name) {
		r.logger.Warn("command denied", "command", req.Name, "role", role.String())
		r.reply(ctx, endpoint, "You are not allowed to use /"+req.Name+".", Markup{})
		return
	}

	r.dispatch(ctx, endpoint, role, req, cfg)
}

func (r *Router) dispatch(ctx context.Context, endpoint string, role Role, req Request, cfg *deviceconfig.DeviceConfig) {
	switch req.Name {
	case CmdStart, CmdMenu:
		r.reply(ctx, endpoint, cfg.DisplayName+" ready.", BuildMenu(role, cfg.DeviceID))

	case CmdHelp:
		r.reply(ctx, endpoint, r.helpText(role), BuildMenu(role, cfg.DeviceID))

	case CmdPhoto:
		r.handlePhoto(ctx, endpoint)

	case CmdStatus:
		r.reply(ctx, endpoint, r.statusText(cfg), Markup{})

	case CmdInfo:
		r.reply(ctx, endpoint, r.infoText(cfg), Markup{})

	case CmdConfig:
		r.reply(ctx, endpoint, "Select a field to edit:", BuildConfigMenu(cfg.DeviceID))

	case CmdConfirm, CmdCancel:
		// No session is open for this endpoint (the session path would
		// have captured the message), so these are stray.
		r.reply(ctx, endpoint, "No active editing session.", Markup{})

	case CmdRestart:
		r.reply(ctx, endpoint, "Restarting.", Markup{})
		r.restart("chat restart command")

	case CmdSave:
		r.handleSave(ctx, endpoint)

	default:
		if field, ok := editField(req.Name); ok {
			r.handleOpenEdit(ctx, endpoint, field, cfg)
			return
		}
		r.reply(ctx, endpoint, r.helpText(role), Markup{})
	}
}

func (r *Router) handlePhoto(ctx context.Context, endpoint string) {
	if r.camera == nil {
		r.reply(ctx, endpoint, "Camera unavailable.", Markup{})
		return
	}
	frame, err := r.camera.Capture(ctx)
	if err != nil {
		r.logger.Error("capture failed", "error", err)
		r.reply(ctx, endpoint, "Capture failed: "+err.Error(), Markup{})
		return
	}
	r.reply(ctx, endpoint, fmt.Sprintf("Snapshot captured (%d bytes).", len(frame)), Markup{})
}

func (r *Router) handleSave(ctx context.Context, endpoint string) {
	if err := r.store.Flush(ctx); err != nil {
		r.logger.Error("explicit save failed", "error", err)
		r.reply(ctx, endpoint, "Save failed: "+err.Error(), Markup{})
		return
	}
	r.reply(ctx, endpoint, "Configuration saved. Restarting.", Markup{})
	r.restart("chat save command")
}

func (r *Router) handleOpenEdit(ctx context.Context, endpoint string, field deviceconfig.Field, cfg *deviceconfig.DeviceConfig) {
	out, err := r.sessions.Open(field, endpoint)
	if err != nil {
		r.reply(ctx, endpoint, sessionErrorText(err), Markup{})
		return
	}
	prompt := fmt.Sprintf("Editing %s.\nCurrent value: %s\nSend the new value, or /cancel.",
		out.Label, displayValue(out.Current, out.Secret))
	r.reply(ctx, endpoint, prompt, Markup{})
}

// handleSessionMessage routes a message from the endpoint that owns the
// open session. Confirm and cancel work as commands from any session
// state; anything else is free text.
func (r *Router) handleSessionMessage(ctx context.Context, endpoint, text string) {
	cfg := r.store.Current()
	if req, isCommand := Parse(text); isCommand {
		if !req.ForDevice(cfg.DeviceID) {
			return
		}
		switch req.Name {
		case CmdConfirm:
			r.handleConfirm(ctx, endpoint, cfg)
			return
		case CmdCancel:
			r.handleCancel(ctx, endpoint, cfg)
			return
		}
		// Any other command token is taken literally as input; a value
		// starting with "/" is unusual but not impossible.
	}

	out, err := r.sessions.Submit(text, endpoint)
	if err != nil {
		if session.Retryable(err) {
			r.reply(ctx, endpoint, sessionErrorText(err)+" Try again, or /cancel.", Markup{})
			return
		}
		if errors.Is(err, session.ErrBadState) {
			r.reply(ctx, endpoint, "A value is already staged. /confirm or /cancel.",
				BuildConfirmMarkup(cfg.DeviceID))
			return
		}
		r.reply(ctx, endpoint, sessionErrorText(err), Markup{})
		return
	}

	diff := fmt.Sprintf("%s\nCurrent: %s\nNew: %s",
		out.Label, displayValue(out.Current, out.Secret), displayValue(out.Candidate, out.Secret))
	r.reply(ctx, endpoint, diff, BuildConfirmMarkup(cfg.DeviceID))
}

func (r *Router) handleConfirm(ctx context.Context, endpoint string, cfg *deviceconfig.DeviceConfig) {
	out, err := r.sessions.Confirm(ctx, endpoint)
	if err != nil && !session.Retryable(err) {
		if errors.Is(err, session.ErrBadState) {
			r.reply(ctx, endpoint, "Nothing to confirm yet. Send the new value first.", Markup{})
			return
		}
		// An unsaved-store error means the value applied in memory but
		// the write failed; report it and fall through to success.
		if errors.Is(err, deviceconfig.ErrUnsaved) {
			r.logger.Error("edit applied but not persisted", "error", err)
		} else {
			r.reply(ctx, endpoint, sessionErrorText(err), Markup{})
			return
		}
	}
	r.logger.Info("config field updated", "field", string(out.Field), "config_version", r.store.Version())
	r.reply(ctx, endpoint, out.Label+" updated.", BuildConfigMenu(cfg.DeviceID))
}

func (r *Router) handleCancel(ctx context.Context, endpoint string, cfg *deviceconfig.DeviceConfig) {
	out, err := r.sessions.Cancel(endpoint)
	if err != nil {
		r.reply(ctx, endpoint, sessionErrorText(err), Markup{})
		return
	}
	r.reply(ctx, endpoint, "Edit of "+out.Label+" cancelled.", BuildConfigMenu(cfg.DeviceID))
}

// NotifyTimeout tells an endpoint its session expired. Called by the tick
// loop after a sweep.
func (r *Router) NotifyTimeout(ctx context.Context, endpoint string) {
	r.reply(ctx, endpoint, "Editing session timed out; nothing was changed.", Markup{})
}

func (r *Router) reply(ctx context.Context, endpoint, text string, markup Markup) {
	encoded, err := markup.Encode()
	if err != nil {
		r.logger.Error("encoding reply markup", "error", err)
		encoded = nil
	}
	msg := delivery.Message{Endpoint: endpoint, Content: text, Markup: encoded}
	if err := r.sender.Send(ctx, msg); err != nil {
		r.logger.Warn("reply delivery failed", "endpoint", endpoint, "error", err)
	}
}

func (r *Router) helpText(role Role) string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range HelpFor(role) {
		b.WriteString("/" + name + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) statusText(cfg *deviceconfig.DeviceConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", cfg.DisplayName, cfg.DeviceID)
	fmt.Fprintf(&b, "Config version: %d", cfg.ConfigVersion)
	if r.store.Unsaved() {
		b.WriteString(" (unsaved changes)")
	}
	if r.stats != nil {
		snap := r.stats.Snapshot()
		fmt.Fprintf(&b, "\nSent: %d, failed: %d", snap.SentTotal, snap.FailedTotal)
		if snap.LastError != "" {
			fmt.Fprintf(&b, "\nLast error: %s", snap.LastError)
		}
	}
	return b.String()
}

func (r *Router) infoText(cfg *deviceconfig.DeviceConfig) string {
	uptime := time.Since(r.startedAt).Round(time.Second)
	return fmt.Sprintf("%s\nDevice: %s\nVersion: %s\nUptime: %s",
		cfg.DisplayName, cfg.DeviceID, r.version, uptime)
}

// sessionErrorText turns a session error into the reply the caller sees.
func sessionErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrTimeout):
		return "Editing session timed out; nothing was changed."
	default:
		return strings.TrimPrefix(err.Error(), "session: ")
	}
}

// displayValue masks secrets and makes empty values visible.
func displayValue(v string, secret bool) string {
	if v == "" {
		return "(empty)"
	}
	if secret {
		return "••••••"
	}
	return v
}
