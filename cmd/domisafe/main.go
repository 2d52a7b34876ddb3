// DomiSafe - Home Monitoring Agent
//
// This is the main entry point for the DomiSafe agent. The agent polls
// local sensors (environmental, security, device status), journals every
// reading to disk, and publishes telemetry to the cloud MQTT broker. It is
// designed to survive broker outages: local persistence always happens
// first, and the broker connection reconnects indefinitely in the
// background.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/domisafe-core/migrations"

	"github.com/nerrad567/domisafe-core/internal/device"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/config"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/database"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/logging"
	"github.com/nerrad567/domisafe-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/domisafe-core/internal/journal"
	"github.com/nerrad567/domisafe-core/internal/poller"
	"github.com/nerrad567/domisafe-core/internal/sensor"
	"github.com/nerrad567/domisafe-core/internal/telemetry"
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

// shutdownGrace bounds how long shutdown waits for the polling goroutine.
const shutdownGrace = 10 * time.Second

// environmentalChannels maps environmental metrics to their feed channels.
var environmentalChannels = map[string]string{
	"temperature": "temperature",
	"humidity":    "humidity",
	"pressure":    "pressure",
}

// securityChannels maps security metrics to their feed channels.
// motion_detected publishes to the "motion" feed; the rest map one to one.
var securityChannels = map[string]string{
	"motion_detected":   "motion",
	"led_status":        "led_status",
	"buzzer_status":     "buzzer_status",
	"camera_last_image": "camera_last_image",
}

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting DomiSafe agent",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. Missing credentials are the only startup-fatal
	// condition: everything else degrades at runtime instead.
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

	// Open the reading journal
	jrnl, err := journal.Open(cfg.Storage.DataDir, cfg.GetFlushInterval(), log)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() {
		log.Info("closing journal")
		if closeErr := jrnl.Close(); closeErr != nil {
			log.Error("error closing journal", "error", closeErr)
		}
	}()
	log.Info("journal opened", "dir", cfg.Storage.DataDir)

	// Ensure the image capture directory exists before the security sensor
	// needs it.
	if err := os.MkdirAll(cfg.Storage.ImageDir, 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}

	// Connect to the telemetry broker. A failed initial attempt is not
	// fatal: the agent keeps collecting locally and retries in the
	// background until the broker comes back.
	client := mqtt.New(cfg.Broker)
	client.SetLogger(log)
	client.SetOnStateChange(func(from, to mqtt.ConnectionState) {
		log.Info("broker connection state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})
	defer func() {
		log.Info("disconnecting from broker")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing broker connection", "error", closeErr)
		}
	}()

	topics := mqtt.Topics{Username: cfg.Broker.Username}
	if err := client.Connect(); err != nil {
		log.Warn("initial broker connect failed, retrying in background", "error", err)
		client.Reconnect()
	} else {
		log.Info("broker connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
			"client_id", client.SessionIdentity(),
		)
		subscribeSideChannels(client, topics, log)
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the sensing pipeline: sources feed the poller, which journals,
	// mirrors, and publishes.
	publisher := telemetry.NewPublisher(client, topics, cfg.GetMinPublishGap(), log)

	environmental := sensor.NewEnvironmental(sensor.NullProbe{}, log)
	security := sensor.NewSecurity(
		sensor.NullMotionDetector{},
		sensor.NullAlerter{},
		sensor.NullCamera{},
		cfg.Storage.ImageDir,
		log,
	)
	defer func() {
		log.Info("releasing camera")
		if closeErr := security.Close(); closeErr != nil {
			log.Error("error releasing camera", "error", closeErr)
		}
	}()

	statusRepo := device.NewSQLiteStatusRepository(db.DB)
	sweep := device.NewSweep(cfg.Devices, device.StubStatusReader{}, statusRepo, log)

	activities := []poller.Activity{
		{
			Name:     "security",
			Interval: cfg.GetSecurityInterval(),
			Channels: securityChannels,
			Source:   security,
		},
		{
			Name:     "environmental",
			Interval: cfg.GetEnvInterval(),
			Channels: environmentalChannels,
			Source:   environmental,
		},
		{
			Name:     "devices",
			Interval: cfg.GetDeviceInterval(),
			Channels: nil, // statuses stay local (journal + database)
			Source:   sweep,
		},
	}

	var mirror poller.Mirror
	if influxClient != nil {
		mirror = influxClient
	}

	pol := poller.New(activities, jrnl, mirror, publisher, cfg.GetBaseTick(), log)
	pol.Start(ctx)
	defer func() {
		log.Info("stopping poller")
		if stopErr := pol.Stop(shutdownGrace); stopErr != nil {
			log.Error("error stopping poller", "error", stopErr)
		}
	}()

	log.Info("initialisation complete, polling",
		"security_interval", cfg.GetSecurityInterval().String(),
		"env_interval", cfg.GetEnvInterval().String(),
		"device_interval", cfg.GetDeviceInterval().String(),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Poller (stop producing readings)
	// 2. Camera
	// 3. InfluxDB (if enabled)
	// 4. Broker connection
	// 5. Journal (final flush)
	// 6. Database

	log.Info("DomiSafe agent stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DOMISAFE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOMISAFE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// subscribeSideChannels subscribes to the broker's per-account error and
// throttle topics so rate-limit warnings and payload errors surface in the
// agent's own logs. Best effort: the agent functions without them.
func subscribeSideChannels(client *mqtt.Client, topics mqtt.Topics, log *logging.Logger) {
	handler := func(topic string, payload []byte) error {
		log.Warn("broker side channel message",
			"topic", topic,
			"message", string(payload),
		)
		return nil
	}

	for _, topic := range []string{topics.Errors(), topics.Throttle()} {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			log.Warn("side channel subscription failed", "topic", topic, "error", err)
		}
	}
}
