package deviceconfig

import (
	"context"
	"fmt"
	"sync"
)

// Logger is the narrow logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store owns the in-memory DeviceConfig snapshot and its persistence.
//
// All mutations go through Update, which bumps ConfigVersion and persists.
// A failed persist keeps the in-memory state (marked unsaved) so the
// appliance keeps operating on what the caller confirmed; Flush retries the
// write later.
//
// The main loop is the sole mutator, but the debug console reads
// concurrently, so access is guarded.
type Store struct {
	repo Repository

	mu      sync.RWMutex
	cfg     *DeviceConfig
	unsaved bool

	logger Logger
}

// NewStore creates a Store over the given repository. Call Load before use.
func NewStore(repo Repository) *Store {
	return &Store{
		repo:   repo,
		cfg:    &DeviceConfig{},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load reads the persisted snapshot into memory.
//
// First boot (empty snapshot) and read failures both fall back to a fresh
// default config with a newly generated identity and PIN; a read failure is
// logged but not fatal, because a camera that can't read its config should
// still be provisionable.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("reading persisted config failed, falling back to defaults", "error", err)
		return s.resetLocked(ctx)
	}

	if len(snap) == 0 || snap[keyDeviceID] == "" {
		s.logger.Info("no persisted config, generating defaults")
		return s.resetLocked(ctx)
	}

	s.mu.Lock()
	s.cfg = decode(snap)
	s.unsaved = false
	s.mu.Unlock()

	s.logger.Info("device config loaded",
		"device_id", s.Current().DeviceID,
		"config_version", s.Current().ConfigVersion,
		"provisioned", s.Current().Provisioned,
	)
	return nil
}

// resetLocked installs fresh defaults (new identity and PIN, version 0) and
// attempts to persist them.
func (s *Store) resetLocked(ctx context.Context) error {
	pin, err := NewPIN()
	if err != nil {
		return fmt.Errorf("generating default PIN: %w", err)
	}

	cfg := &DeviceConfig{
		DeviceID:      NewIdentity(),
		PIN:           pin,
		PINConfigured: true,
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		s.logger.Warn("persisting default config failed", "error", err)
	}
	return nil
}

// Current returns a copy of the in-memory config.
func (s *Store) Current() *DeviceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Version returns the current config version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ConfigVersion
}

// Unsaved reports whether the in-memory config has mutations that failed to
// persist.
func (s *Store) Unsaved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsaved
}

// Update applies fn to the config, bumps ConfigVersion, and persists.
//
// If fn returns an error nothing changes. If persisting fails the in-memory
// mutation is kept, the store is marked unsaved, and the returned error
// wraps ErrUnsaved; callers log it and continue rather than rolling back.
func (s *Store) Update(ctx context.Context, fn func(*DeviceConfig) error) error {
	s.mu.Lock()
	candidate := s.cfg.Clone()
	if err := fn(candidate); err != nil {
		s.mu.Unlock()
		return err
	}
	candidate.ConfigVersion++
	s.cfg = candidate
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		s.mu.Lock()
		s.unsaved = true
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrUnsaved, err)
	}
	return nil
}

// Flush retries persisting the current in-memory state. Used by the explicit
// save command to pick up earlier failed writes.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.persist(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsaved, err)
	}
	return nil
}

// RegeneratePIN installs a fresh provisioning PIN. Called on every new
// provisioning connection.
func (s *Store) RegeneratePIN(ctx context.Context) (string, error) {
	pin, err := NewPIN()
	if err != nil {
		return "", err
	}
	err = s.Update(ctx, func(cfg *DeviceConfig) error {
		cfg.PIN = pin
		cfg.PINConfigured = true
		return nil
	})
	return pin, err
}

// ResetDefaults discards the current config and installs fresh defaults with
// a new identity. This is the factory reset path; it is the only operation
// that resets ConfigVersion.
func (s *Store) ResetDefaults(ctx context.Context) error {
	s.logger.Warn("factory reset: discarding device config")
	return s.resetLocked(ctx)
}

// persist writes the current snapshot through the repository and clears the
// unsaved flag on success.
func (s *Store) persist(ctx context.Context) error {
	s.mu.RLock()
	snap := encode(s.cfg)
	s.mu.RUnlock()

	if err := s.repo.Save(ctx, snap); err != nil {
		return err
	}

	s.mu.Lock()
	s.unsaved = false
	s.mu.Unlock()
	return nil
}
