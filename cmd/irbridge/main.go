// IR Bridge Core - Infrared Device Coordination Service
//
// This is the main entry point for the IR Bridge Core application.
// IR Bridge Core manages IR blaster devices attached to an MQTT bus:
//   - Per-device command libraries (factory, learned, and imported codes)
//   - Command dispatch to blaster hardware
//   - Interactive learning sessions with live progress updates
//   - Library interchange with the SmartIR ecosystem
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/irbridge-core/migrations"

	"github.com/nerrad567/irbridge-core/internal/api"
	"github.com/nerrad567/irbridge-core/internal/bridge"
	"github.com/nerrad567/irbridge-core/internal/coordinator"
	"github.com/nerrad567/irbridge-core/internal/device"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/config"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/database"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/logging"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/tsdb"
	"github.com/nerrad567/irbridge-core/internal/ircode"
	"github.com/nerrad567/irbridge-core/internal/learning"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting IR Bridge Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRegistry, err := device.NewRegistry(ctx, deviceRepo, log)
	if err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.Count())

	// Initialise command library store
	codeRepo := ircode.NewSQLiteRepository(db.DB)
	codeStore := ircode.NewStore(codeRepo, log)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var telemetry *tsdb.Client
	if cfg.InfluxDB.Enabled {
		telemetry, err = tsdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetry.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		telemetry.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Bridge to the blaster hardware over the bus
	topics := mqtt.Topics{Base: cfg.MQTT.BaseTopic}
	irBridge := bridge.New(mqttClient, topics, byte(cfg.MQTT.QoS), log)

	// Learning session registry with event broadcasting
	broadcaster := learning.NewBroadcaster(0)
	sessions := learning.NewRegistry(irBridge, broadcaster, cfg.Learning, log)

	// Coordinator ties the registry, library, bridge, and sessions together
	coord := coordinator.New(coordinator.Deps{
		Devices:     deviceRegistry,
		Codes:       codeStore,
		Bridge:      irBridge,
		Sessions:    sessions,
		Broadcaster: broadcaster,
		Publisher:   mqttClient,
		Topics:      topics,
		Telemetry:   telemetry,
		Logger:      log,
	})
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}
	defer func() {
		log.Info("stopping coordinator")
		coord.Close()
	}()
	log.Info("coordinator started", "base_topic", cfg.MQTT.BaseTopic)

	// HTTP API and WebSocket server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Coordinator: coord,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, telemetry); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Coordinator (cancels active learning sessions)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("IR Bridge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses IRBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IRBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// telemetry may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, telemetry *tsdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if telemetry != nil {
		if err := telemetry.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
