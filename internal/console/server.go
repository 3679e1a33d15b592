// Package console is the maintenance surface of the appliance: a small
// authenticated HTTP API plus a WebSocket event stream, for an installer
// with network access to the device. It is a thin passthrough — every
// operation it exposes is implemented elsewhere; nothing here touches
// device state directly.
package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/delivery"
	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/config"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/logging"
	"github.com/aldermoor/sentrycam-core/internal/lifecycle"
)

const gracefulShutdownTimeout = 10 * time.Second

// Lifecycle is the controller surface the console needs.
type Lifecycle interface {
	State() lifecycle.State
	RequestRestart(reason string)
}

// Camera produces a still frame for the test-capture endpoint.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Scanner exposes network diagnostics.
type Scanner interface {
	Scan(ctx context.Context) ([]string, error)
	Active() string
}

// Sender delivers a chat message for the send endpoint.
type Sender interface {
	Send(ctx context.Context, msg delivery.Message) error
}

// SetupBearer lets the console force the provisioning transport up or
// down outside the normal lifecycle flow.
type SetupBearer interface {
	Start() error
	Stop() error
}

// Deps holds the console server's collaborators. Logger and Store are
// required; the rest degrade to "not available" responses when nil.
type Deps struct {
	Config    config.ConsoleConfig
	Logger    *logging.Logger
	Store     *deviceconfig.Store
	Stats     *delivery.Stats
	Lifecycle Lifecycle
	Camera    Camera
	Scanner   Scanner
	Sender    Sender
	Setup     SetupBearer
	Version   string
}

// Server is the console HTTP server. Create with New, start with Start,
// stop with Close.
type Server struct {
	cfg    config.ConsoleConfig
	logger *logging.Logger
	deps   Deps

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New builds a console server.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("console: logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("console: config store is required")
	}
	return &Server{
		cfg:    deps.Config,
		logger: deps.Logger.With("component", "console"),
		deps:   deps,
	}, nil
}

// Start launches the listener in the background.
func (s *Server) Start(ctx context.Context) error {
	var hubCtx context.Context
	hubCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.cfg.WebSocket, s.logger)
	go s.hub.Run(hubCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("console server error", "error", err)
		}
	}()

	s.logger.Info("console listening", "address", s.server.Addr)
	return nil
}

// Close drains in-flight requests, then shuts down.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down console: %w", err)
	}
	return nil
}

// Broadcast pushes an event to every connected WebSocket client.
func (s *Server) Broadcast(kind string, data any) {
	if s.hub != nil {
		s.hub.Broadcast(kind, data)
	}
}
