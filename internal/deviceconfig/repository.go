package deviceconfig

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/database"
)

// Repository persists the flat key/value snapshot of a DeviceConfig.
type Repository interface {
	// Load reads the full snapshot. An empty map means no config has been
	// persisted yet (first boot).
	Load(ctx context.Context) (map[string]string, error)

	// Save writes the full snapshot atomically.
	Save(ctx context.Context, snapshot map[string]string) error
}

// Persisted key names. These mirror DeviceConfig fields exactly; per-slot
// network keys are indexed from 1.
const (
	keyDeviceID             = "device_id"
	keyDisplayName          = "display_name"
	keyPIN                  = "pin"
	keyAuthToken            = "auth_token"
	keyOwnerEndpoint        = "endpoint_owner"
	keyFamilyEndpoint       = "endpoint_family"
	keyNeighborhoodEndpoint = "endpoint_neighborhood"
	keyAlertTemplate        = "alert_template"
	keyConfigVersion        = "config_version"
	keyProvisioned          = "provisioned"
	keyPINConfigured        = "pin_configured"
)

func networkNameKey(slot int) string   { return fmt.Sprintf("network%d_name", slot+1) }
func networkSecretKey(slot int) string { return fmt.Sprintf("network%d_secret", slot+1) }

// encode flattens a DeviceConfig into the persisted key/value document.
func encode(cfg *DeviceConfig) map[string]string {
	snap := map[string]string{
		keyDeviceID:             cfg.DeviceID,
		keyDisplayName:          cfg.DisplayName,
		keyPIN:                  cfg.PIN,
		keyAuthToken:            cfg.AuthToken,
		keyOwnerEndpoint:        cfg.OwnerEndpoint,
		keyFamilyEndpoint:       cfg.FamilyEndpoint,
		keyNeighborhoodEndpoint: cfg.NeighborhoodEndpoint,
		keyAlertTemplate:        cfg.AlertTemplate,
		keyConfigVersion:        strconv.FormatUint(cfg.ConfigVersion, 10),
		keyProvisioned:          encodeBool(cfg.Provisioned),
		keyPINConfigured:        encodeBool(cfg.PINConfigured),
	}
	for i := 0; i < NetworkSlots; i++ {
		snap[networkNameKey(i)] = cfg.Networks[i].Name
		snap[networkSecretKey(i)] = cfg.Networks[i].Secret
	}
	return snap
}

// decode rebuilds a DeviceConfig from the persisted document. Missing keys
// decode to zero values; a garbled version decodes to 0 rather than failing
// the whole load.
func decode(snap map[string]string) *DeviceConfig {
	cfg := &DeviceConfig{
		DeviceID:             snap[keyDeviceID],
		DisplayName:          snap[keyDisplayName],
		PIN:                  snap[keyPIN],
		AuthToken:            snap[keyAuthToken],
		OwnerEndpoint:        snap[keyOwnerEndpoint],
		FamilyEndpoint:       snap[keyFamilyEndpoint],
		NeighborhoodEndpoint: snap[keyNeighborhoodEndpoint],
		AlertTemplate:        snap[keyAlertTemplate],
		Provisioned:          snap[keyProvisioned] == "1",
		PINConfigured:        snap[keyPINConfigured] == "1",
	}
	if v, err := strconv.ParseUint(snap[keyConfigVersion], 10, 64); err == nil {
		cfg.ConfigVersion = v
	}
	for i := 0; i < NetworkSlots; i++ {
		cfg.Networks[i].Name = snap[networkNameKey(i)]
		cfg.Networks[i].Secret = snap[networkSecretKey(i)]
	}
	return cfg
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SQLiteRepository stores the snapshot in the device_config table.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load reads all persisted keys.
func (r *SQLiteRepository) Load(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM device_config")
	if err != nil {
		return nil, fmt.Errorf("querying device_config: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	snap := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning device_config row: %w", err)
		}
		snap[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading device_config rows: %w", err)
	}
	return snap, nil
}

// Save upserts every key of the snapshot in a single transaction, so a
// provisioning intake that touches a dozen keys is all-or-nothing.
func (r *SQLiteRepository) Save(ctx context.Context, snapshot map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range snapshot {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO device_config (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, now); err != nil {
			return fmt.Errorf("upserting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing config save: %w", err)
	}
	return nil
}
