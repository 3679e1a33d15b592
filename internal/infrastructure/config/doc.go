// Package config loads and validates the runtime configuration for
// Sentrycam Core.
//
// Configuration is assembled in three layers: hardcoded defaults, a YAML
// file, and SENTRYCAM_* environment variable overrides. The loaded Config is
// immutable after Load returns; components receive the sections they need by
// value.
//
// Runtime configuration is deliberately separate from the provisioned
// DeviceConfig (network credentials, notification endpoints, alert template),
// which is persisted in SQLite and owned by the deviceconfig package.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//
// # Security
//
// Secrets (MQTT password, console token secret, InfluxDB token) should be
// provided via environment variables rather than the config file.
package config
