package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// State describes the supervised capture helper.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StateFailed  State = "failed"
)

const gracefulStopTimeout = 10 * time.Second

// Logger is the narrow logging surface the supervisor needs.
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

// SupervisorConfig configures the capture helper supervision.
type SupervisorConfig struct {
	// Binary is the capture helper executable; Args its arguments.
	Binary string
	Args   []string

	// RestartOnFailure re-launches the helper when it exits on its own.
	RestartOnFailure bool

	// RestartDelay is the pause before each re-launch.
	RestartDelay time.Duration

	// MaxRestartAttempts caps re-launches; 0 means unlimited.
	MaxRestartAttempts int
}

// Supervisor keeps the capture helper process alive. The helper writes
// frames to the spool path that FrameSource reads; the supervisor never
// touches frames itself.
type Supervisor struct {
	cfg    SupervisorConfig
	logger Logger

	mu       sync.RWMutex
	cmd      *exec.Cmd
	state    State
	restarts int
	lastErr  error
	stopping bool
	done     chan struct{}
}

// NewSupervisor builds a Supervisor. A nil logger is replaced with a
// no-op one.
func NewSupervisor(cfg SupervisorConfig, logger Logger) *Supervisor {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = 5 * time.Second
	}
	return &Supervisor{cfg: cfg, logger: logger, state: StateStopped}
}

// Start launches the helper and begins monitoring it.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return ErrHelperRunning
	}
	s.stopping = false
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.launch(ctx); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.lastErr = err
		close(s.done)
		s.mu.Unlock()
		return err
	}

	go s.monitor(ctx)
	return nil
}

func (s *Supervisor) launch(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.cfg.Binary, s.cfg.Args...)
	// Own process group so Stop can signal the helper and its children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching capture helper: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.state = StateRunning
	s.mu.Unlock()

	go s.drain("stdout", stdout)
	go s.drain("stderr", stderr)

	s.logger.Info("capture helper started", "binary", s.cfg.Binary, "pid", cmd.Process.Pid)
	return nil
}

// drain logs helper output so a misbehaving pipeline leaves evidence.
func (s *Supervisor) drain(stream string, r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.logger.Debug("capture helper output", "stream", stream, "output", string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (s *Supervisor) monitor(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.RLock()
		cmd := s.cmd
		s.mu.RUnlock()
		if cmd == nil {
			return
		}

		err := cmd.Wait()

		s.mu.Lock()
		stopping := s.stopping
		s.lastErr = err
		if stopping {
			s.state = StateStopped
		} else {
			s.state = StateFailed
		}
		s.mu.Unlock()

		if stopping {
			return
		}

		s.logger.Warn("capture helper exited", "error", err)
		if !s.cfg.RestartOnFailure {
			return
		}

		s.mu.Lock()
		s.restarts++
		attempt := s.restarts
		s.mu.Unlock()

		if s.cfg.MaxRestartAttempts > 0 && attempt > s.cfg.MaxRestartAttempts {
			s.logger.Error("capture helper restart limit reached", "attempts", attempt)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RestartDelay):
		}

		s.mu.RLock()
		stopping = s.stopping
		s.mu.RUnlock()
		if stopping {
			return
		}

		s.logger.Info("restarting capture helper", "attempt", attempt)
		if err := s.launch(ctx); err != nil {
			s.logger.Error("capture helper restart failed", "error", err)
			return
		}
	}
}

// Stop terminates the helper: SIGTERM the process group, SIGKILL after a
// grace period. Safe to call when not running.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil || done == nil {
		return nil
	}

	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Warn("signalling capture helper", "error", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(gracefulStopTimeout):
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("killing capture helper: %w", err)
	}
	<-done
	return nil
}

// State returns the helper's current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Restarts returns how many times the helper has been re-launched.
func (s *Supervisor) Restarts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restarts
}

// LastError returns the error from the helper's most recent exit.
func (s *Supervisor) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
