// Sentrycam Core - Camera Appliance Firmware
//
// This is the main entry point for the Sentrycam Core appliance daemon.
// Sentrycam drives a single network camera through its lifecycle:
// provisioning over a local setup channel, chat-based command handling
// with role gating, guarded configuration editing, and reliable outbound
// delivery of alerts and replies.
//
// The daemon is restart-oriented: the lifecycle controller returns a
// decision (restart or shutdown) and run() tears the whole stack down
// and rebuilds it, the same way the appliance reboots in the field.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldermoor/sentrycam-core/internal/camera"
	"github.com/aldermoor/sentrycam-core/internal/chat"
	"github.com/aldermoor/sentrycam-core/internal/command"
	"github.com/aldermoor/sentrycam-core/internal/console"
	"github.com/aldermoor/sentrycam-core/internal/delivery"
	"github.com/aldermoor/sentrycam-core/internal/deviceconfig"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/config"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/database"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/influxdb"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/logging"
	"github.com/aldermoor/sentrycam-core/internal/infrastructure/mqtt"
	"github.com/aldermoor/sentrycam-core/internal/lifecycle"
	"github.com/aldermoor/sentrycam-core/internal/netlink"
	"github.com/aldermoor/sentrycam-core/internal/provisioning"
	"github.com/aldermoor/sentrycam-core/internal/session"
	"github.com/aldermoor/sentrycam-core/internal/telemetry"
	"github.com/aldermoor/sentrycam-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It loads configuration once, then boots the appliance stack repeatedly
// until the lifecycle asks for shutdown or the context is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Sentrycam Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	for {
		decision, bootErr := boot(ctx, cfg, log)
		if bootErr != nil {
			// Boot errors during provisioning (timeout, unreachable
			// state) still carry a restart decision; only give up when
			// the decision says so.
			log.Error("boot cycle ended with error", "error", bootErr, "decision", int(decision))
		}

		if decision == lifecycle.DecisionShutdown || ctx.Err() != nil {
			log.Info("shutdown complete")
			return nil
		}

		log.Info("restarting appliance stack")
	}
}

// boot builds the full appliance stack, runs the lifecycle controller to
// its next decision, and tears everything down again. Each call is one
// simulated power cycle.
func boot(ctx context.Context, cfg *config.Config, log *logging.Logger) (lifecycle.Decision, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return lifecycle.DecisionShutdown, fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return lifecycle.DecisionShutdown, fmt.Errorf("running migrations: %w", migrateErr)
	}

	// Device configuration store: the persisted identity, credentials and
	// endpoints this appliance has been provisioned with.
	store := deviceconfig.NewStore(deviceconfig.NewSQLiteRepository(db))
	store.SetLogger(log)
	if loadErr := store.Load(ctx); loadErr != nil {
		return lifecycle.DecisionShutdown, fmt.Errorf("loading device config: %w", loadErr)
	}
	deviceID := store.Current().DeviceID
	log.Info("device config loaded",
		"device_id", deviceID,
		"version", store.Version(),
		"provisioned", store.Current().Provisioned,
	)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return lifecycle.DecisionShutdown, fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log)
	defer func() {
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT client", "error", closeErr)
		}
	}()
	log.Info("MQTT connected", "host", cfg.MQTT.Broker.Host, "port", cfg.MQTT.Broker.Port)

	// Delivery layer: spaced, retried outbound sends plus counters.
	stats := delivery.NewStats()
	sender := delivery.NewSender(
		delivery.NewMQTTTransport(mqttClient, deviceID),
		delivery.Policy{
			MinSpacing:  cfg.DeliveryMinSpacing(),
			MaxAttempts: cfg.Delivery.MaxAttempts,
			BackoffStep: cfg.DeliveryBackoffStep(),
		},
		stats,
		delivery.NewClock(),
	)
	sender.SetLogger(log)

	// Telemetry sink is optional; everything runs without it.
	var reporter *telemetry.Reporter
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("telemetry sink disabled")
	case err != nil:
		log.Warn("telemetry sink unavailable, continuing without", "error", err)
	default:
		defer influxClient.Close()
		reporter = telemetry.NewReporter(influxClient, stats, deviceID, telemetry.DefaultInterval, log)
		log.Info("telemetry sink connected", "url", cfg.InfluxDB.URL)
	}

	// Capture pipeline. The frame source always exists; the helper process
	// is only supervised when we own it.
	frames := camera.NewFrameSource(cfg.Camera.FramePath, cfg.CaptureTimeout())
	var supervisor *camera.Supervisor
	if cfg.Camera.Managed {
		supervisor = camera.NewSupervisor(camera.SupervisorConfig{
			Binary:             cfg.Camera.Binary,
			Args:               cfg.Camera.Args,
			RestartOnFailure:   cfg.Camera.RestartOnFailure,
			RestartDelay:       time.Duration(cfg.Camera.RestartDelaySeconds) * time.Second,
			MaxRestartAttempts: cfg.Camera.MaxRestartAttempts,
		}, log)
		if startErr := supervisor.Start(ctx); startErr != nil {
			log.Error("capture helper failed to start", "error", startErr)
		}
		defer func() {
			if stopErr := supervisor.Stop(); stopErr != nil {
				log.Error("error stopping capture helper", "error", stopErr)
			}
		}()
	}

	sessions := session.NewManager(store, session.DefaultTimeout, time.Now)
	network := netlink.NewPreconfigured()

	// Bearers: provisioning transport and chat source over the shared
	// MQTT connection.
	setup := provisioning.NewMQTTBearer(mqttClient, deviceID, log)
	chatSource := chat.NewMQTTSource(mqttClient, log)

	// Router and controller reference each other (the restart command asks
	// the lifecycle for a restart), so the router gets a late-bound closure.
	var controller *lifecycle.Controller
	router := command.NewRouter(command.Options{
		Store:    store,
		Sessions: sessions,
		Sender:   sender,
		Camera:   frames,
		Stats:    stats,
		Logger:   log,
		RequestRestart: func(reason string) {
			controller.RequestRestart(reason)
		},
		Version: version,
	})

	controller = lifecycle.New(lifecycle.Options{
		Store:               store,
		Intake:              provisioning.NewIntake(store, log),
		Setup:               setup,
		Chat:                chatSource,
		Handler:             router,
		Sessions:            sessions,
		Sender:              sender,
		Connector:           network,
		Stats:               stats,
		Logger:              log,
		ProvisioningTimeout: cfg.ProvisioningSessionTimeout(),
		GraceDelay:          cfg.ProvisioningGraceDelay(),
	})

	bootCtx, cancelBoot := context.WithCancel(ctx)
	defer cancelBoot()

	if reporter != nil {
		if supervisor != nil {
			reporter.AddGauge("helper_restarts", func() float64 {
				return float64(supervisor.Restarts())
			})
		}
		go reporter.Run(bootCtx)
	}

	if cfg.Console.Enabled {
		srv, consoleErr := console.New(console.Deps{
			Config:    cfg.Console,
			Logger:    log,
			Store:     store,
			Stats:     stats,
			Lifecycle: controller,
			Camera:    frames,
			Scanner:   network,
			Sender:    sender,
			Setup:     setup,
			Version:   version,
		})
		if consoleErr != nil {
			return lifecycle.DecisionShutdown, fmt.Errorf("building console: %w", consoleErr)
		}
		if startErr := srv.Start(bootCtx); startErr != nil {
			return lifecycle.DecisionShutdown, fmt.Errorf("starting console: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing console", "error", closeErr)
			}
		}()
		log.Info("debug console listening", "host", cfg.Console.Host, "port", cfg.Console.Port)
	}

	return controller.Run(ctx)
}

// getConfigPath returns the configuration file path, honouring the
// SENTRYCAM_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("SENTRYCAM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
