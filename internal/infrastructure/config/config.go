package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root runtime configuration for Sentrycam Core.
//
// Runtime configuration (paths, broker, timeouts, console) is loaded from YAML
// and may be overridden by environment variables. It is distinct from the
// persisted DeviceConfig, which lives in SQLite and is owned by the config
// store: runtime config describes how this process runs, DeviceConfig
// describes what the appliance has been provisioned with.
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Delivery     DeliveryConfig     `yaml:"delivery"`
	Camera       CameraConfig       `yaml:"camera"`
	Console      ConsoleConfig      `yaml:"console"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the chat and
// setup bearers.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// ProvisioningConfig contains provisioning phase settings.
type ProvisioningConfig struct {
	// SessionTimeout is how long the provisioning phase waits for a valid
	// payload before forcing a restart (seconds).
	SessionTimeout int `yaml:"session_timeout"`

	// GraceDelay is how long to wait after a successful intake before
	// restarting, so the setup client can read the final status (milliseconds).
	GraceDelay int `yaml:"grace_delay"`
}

// DeliveryConfig contains outbound delivery reliability settings.
type DeliveryConfig struct {
	// MinSpacing is the global minimum gap between any two sends (milliseconds).
	MinSpacing int `yaml:"min_spacing"`

	// MaxAttempts is the retry bound per logical send.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffStep is the linear backoff increment between attempts (milliseconds).
	BackoffStep int `yaml:"backoff_step"`
}

// CameraConfig contains capture pipeline settings.
type CameraConfig struct {
	// Managed indicates whether Core supervises the capture helper process.
	// If false, captures read the most recent frame written by an external
	// pipeline.
	Managed bool `yaml:"managed"`

	// Binary is the path to the capture helper executable.
	Binary string `yaml:"binary"`

	// Args are extra arguments passed to the capture helper.
	Args []string `yaml:"args"`

	// FramePath is where the pipeline writes the latest encoded frame.
	FramePath string `yaml:"frame_path"`

	// CaptureTimeout is the maximum time to wait for a frame (seconds).
	CaptureTimeout int `yaml:"capture_timeout"`

	// RestartOnFailure enables automatic restart if the helper exits.
	RestartOnFailure bool `yaml:"restart_on_failure"`

	// RestartDelaySeconds is the time to wait before restarting.
	RestartDelaySeconds int `yaml:"restart_delay_seconds"`

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int `yaml:"max_restart_attempts"`
}

// ConsoleConfig contains debug console HTTP server settings.
type ConsoleConfig struct {
	Enabled   bool                 `yaml:"enabled"`
	Host      string               `yaml:"host"`
	Port      int                  `yaml:"port"`
	Timeouts  ConsoleTimeoutConfig `yaml:"timeouts"`
	WebSocket WebSocketConfig      `yaml:"websocket"`
	JWT       JWTConfig            `yaml:"jwt"`
}

// ConsoleTimeoutConfig contains HTTP timeout settings (seconds).
type ConsoleTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains the console event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// JWTConfig contains console bearer-token settings.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TokenTTL int    `yaml:"token_ttl"` // minutes
}

// InfluxDBConfig contains delivery telemetry sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern SENTRYCAM_SECTION_KEY, for example
// SENTRYCAM_DATABASE_PATH or SENTRYCAM_MQTT_HOST.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/sentrycam.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "sentrycam-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Provisioning: ProvisioningConfig{
			SessionTimeout: 300,
			GraceDelay:     2000,
		},
		Delivery: DeliveryConfig{
			MinSpacing:  1500,
			MaxAttempts: 3,
			BackoffStep: 500,
		},
		Camera: CameraConfig{
			Managed:             false,
			FramePath:           "./data/frame.jpg",
			CaptureTimeout:      10,
			RestartOnFailure:    true,
			RestartDelaySeconds: 5,
			MaxRestartAttempts:  10,
		},
		Console: ConsoleConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: ConsoleTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				Path:           "/ws",
				MaxMessageSize: 8192,
				PingInterval:   30,
				PongTimeout:    10,
			},
			JWT: JWTConfig{
				TokenTTL: 60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern SENTRYCAM_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENTRYCAM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("SENTRYCAM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SENTRYCAM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SENTRYCAM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("SENTRYCAM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Console token secret should never live in the config file in production.
	if v := os.Getenv("SENTRYCAM_CONSOLE_JWT_SECRET"); v != "" {
		cfg.Console.JWT.Secret = v
	}
}

// minJWTSecretLength is the minimum console token secret length. The console
// can restart and factory-reset the appliance, so a forgeable token is as bad
// as an open port.
const minJWTSecretLength = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Provisioning.SessionTimeout <= 0 {
		errs = append(errs, "provisioning.session_timeout must be positive")
	}

	if c.Delivery.MaxAttempts < 1 {
		errs = append(errs, "delivery.max_attempts must be at least 1")
	}
	if c.Delivery.MinSpacing < 0 {
		errs = append(errs, "delivery.min_spacing must not be negative")
	}

	if c.Console.Enabled {
		if c.Console.Port < 1 || c.Console.Port > 65535 {
			errs = append(errs, "console.port must be between 1 and 65535")
		}
		if c.Console.JWT.Secret == "" {
			errs = append(errs, "console.jwt.secret is required when console is enabled (set SENTRYCAM_CONSOLE_JWT_SECRET)")
		} else if len(c.Console.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "console.jwt.secret must be at least 32 characters")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ProvisioningSessionTimeout returns the provisioning timeout as a Duration.
func (c *Config) ProvisioningSessionTimeout() time.Duration {
	return time.Duration(c.Provisioning.SessionTimeout) * time.Second
}

// ProvisioningGraceDelay returns the post-intake grace delay as a Duration.
func (c *Config) ProvisioningGraceDelay() time.Duration {
	return time.Duration(c.Provisioning.GraceDelay) * time.Millisecond
}

// DeliveryMinSpacing returns the global send spacing as a Duration.
func (c *Config) DeliveryMinSpacing() time.Duration {
	return time.Duration(c.Delivery.MinSpacing) * time.Millisecond
}

// DeliveryBackoffStep returns the linear backoff increment as a Duration.
func (c *Config) DeliveryBackoffStep() time.Duration {
	return time.Duration(c.Delivery.BackoffStep) * time.Millisecond
}

// CaptureTimeout returns the camera capture timeout as a Duration.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Camera.CaptureTimeout) * time.Second
}

// ConsoleReadTimeout returns the console read timeout as a Duration.
func (c *Config) ConsoleReadTimeout() time.Duration {
	return time.Duration(c.Console.Timeouts.Read) * time.Second
}

// ConsoleWriteTimeout returns the console write timeout as a Duration.
func (c *Config) ConsoleWriteTimeout() time.Duration {
	return time.Duration(c.Console.Timeouts.Write) * time.Second
}

// ConsoleIdleTimeout returns the console idle timeout as a Duration.
func (c *Config) ConsoleIdleTimeout() time.Duration {
	return time.Duration(c.Console.Timeouts.Idle) * time.Second
}
