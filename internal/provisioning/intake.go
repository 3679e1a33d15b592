package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
)

// Logger is the narrow logging surface the intake needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Intake validates raw provisioning documents and applies them to the
// device configuration. It is the only writer of provisioning fields.
type Intake struct {
	store  *deviceconfig.Store
	logger Logger
}

// NewIntake builds an Intake over the given store. A nil logger is
// replaced with a no-op one.
func NewIntake(store *deviceconfig.Store, logger Logger) *Intake {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Intake{store: store, logger: logger}
}

// Apply parses raw and, if it validates, merges it into the stored
// configuration and marks the device provisioned. It returns the status the
// setup client should be told, plus the parse error when validation failed.
//
// On validation failure nothing is mutated. A persistence failure after a
// successful merge is logged and reported as unsaved by the store, but the
// intake still counts as a success: the in-memory config is authoritative
// and a later flush can catch up.
func (i *Intake) Apply(ctx context.Context, raw []byte) (Status, error) {
	p, err := ParsePayload(raw)
	if err != nil {
		i.logger.Warn("provisioning payload rejected", "error", err)
		return StatusFor(err), err
	}

	err = i.store.Update(ctx, func(cfg *deviceconfig.DeviceConfig) error {
		merge(cfg, p)
		return nil
	})
	if err != nil && !errors.Is(err, deviceconfig.ErrUnsaved) {
		return StatusErrInvalidPayload, err
	}
	if err != nil {
		i.logger.Error("provisioned config not persisted", "error", err)
	}

	i.logger.Info("provisioning intake accepted",
		"device_id", i.store.Current().DeviceID,
		"config_version", i.store.Version())
	return StatusConfigReceived, nil
}

// merge writes the payload into cfg. Required fields always land in the
// primary slots; optional fields only overwrite when provided.
func merge(cfg *deviceconfig.DeviceConfig, p Payload) {
	cfg.Networks[0] = deviceconfig.NetworkCredential{
		Name:   strings.TrimSpace(p.NetworkName),
		Secret: p.NetworkSecret,
	}
	cfg.AuthToken = strings.TrimSpace(p.AuthToken)

	if p.DisplayName != "" {
		cfg.DisplayName = p.DisplayName
	}
	if p.NetworkName2 != "" {
		cfg.Networks[1] = deviceconfig.NetworkCredential{Name: p.NetworkName2, Secret: p.NetworkSecret2}
	}
	if p.NetworkName3 != "" {
		cfg.Networks[2] = deviceconfig.NetworkCredential{Name: p.NetworkName3, Secret: p.NetworkSecret3}
	}
	if p.AlertTemplate != "" {
		cfg.AlertTemplate = p.AlertTemplate
	}
	if p.OwnerEndpoint != "" {
		cfg.OwnerEndpoint = strings.TrimSpace(p.OwnerEndpoint)
	}
	cfg.Provisioned = true
}
