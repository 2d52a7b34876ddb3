package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the DomiSafe agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Broker   BrokerConfig   `yaml:"broker"`
	Polling  PollingConfig  `yaml:"polling"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Devices  []string       `yaml:"devices"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BrokerConfig contains telemetry broker connection settings.
type BrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// TLS enables encrypted transport. Plaintext is a legacy fallback only;
	// the broker's standard encrypted port is the first-class target.
	TLS bool `yaml:"tls"`

	Username string `yaml:"username"`

	// Key is the broker secret. The ADAFRUIT_IO_KEY environment variable,
	// when set, takes precedence over any file-provided value.
	Key string `yaml:"key"`

	KeepAlive int `yaml:"keepalive"`

	// ClientID, when set, pins the session identity. When empty the client
	// generates a fresh identity per connection attempt, which avoids
	// broker-side session-conflict rejections after reconnects.
	ClientID string `yaml:"client_id"`

	// ReconnectDelay is the fixed delay between reconnect attempts (seconds).
	ReconnectDelay int `yaml:"reconnect_delay"`

	// MinPublishGapMs is the minimum spacing between consecutive publishes
	// (milliseconds), respecting broker rate limits.
	MinPublishGapMs int `yaml:"min_publish_gap_ms"`
}

// PollingConfig contains per-activity poll cadences (seconds).
type PollingConfig struct {
	BaseTick         int `yaml:"base_tick"`
	SecurityInterval int `yaml:"security_interval"`
	EnvInterval      int `yaml:"env_interval"`
	DeviceInterval   int `yaml:"device_interval"`
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	DataDir       string `yaml:"data_dir"`
	ImageDir      string `yaml:"image_dir"`
	BackupDir     string `yaml:"backup_dir"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains settings for the optional local TSDB mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// ArchiveConfig contains daily backup settings.
type ArchiveConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config contains S3-compatible object storage settings for backup upload.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults; a missing file is not an error)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DOMISAFE_SECTION_KEY
// (e.g. DOMISAFE_BROKER_HOST). The broker secret additionally honours
// ADAFRUIT_IO_KEY with the highest precedence.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be parsed or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Missing file is fine: run on defaults plus environment.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
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
		Broker: BrokerConfig{
			Host:            "io.adafruit.com",
			Port:            8883,
			TLS:             true,
			KeepAlive:       60,
			ReconnectDelay:  2,
			MinPublishGapMs: 200,
		},
		Polling: PollingConfig{
			BaseTick:         1,
			SecurityInterval: 5,
			EnvInterval:      30,
			DeviceInterval:   300,
		},
		Storage: StorageConfig{
			DataDir:       "./data/logs",
			ImageDir:      "./data/captured_images",
			BackupDir:     "./data/backups",
			FlushInterval: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/domisafe.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Devices: []string{"living_room_light", "bedroom_fan"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("DOMISAFE_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("DOMISAFE_BROKER_USERNAME"); v != "" {
		cfg.Broker.Username = v
	}
	if v := os.Getenv("DOMISAFE_BROKER_KEY"); v != "" {
		cfg.Broker.Key = v
	}
	// ADAFRUIT_IO_KEY wins over both the file and DOMISAFE_BROKER_KEY.
	if v := os.Getenv("ADAFRUIT_IO_KEY"); v != "" {
		cfg.Broker.Key = v
	}

	// Database
	if v := os.Getenv("DOMISAFE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("DOMISAFE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Archive upload credentials
	if v := os.Getenv("DOMISAFE_S3_ACCESS_KEY"); v != "" {
		cfg.Archive.S3.AccessKey = v
	}
	if v := os.Getenv("DOMISAFE_S3_SECRET_KEY"); v != "" {
		cfg.Archive.S3.SecretKey = v
	}
}

// Validate checks the configuration for errors.
//
// Broker credentials are the only startup-fatal requirement: without a host,
// username and key the agent cannot authenticate, so it refuses to start.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	if c.Broker.Username == "" {
		errs = append(errs, "broker.username is required (set DOMISAFE_BROKER_USERNAME)")
	}
	if c.Broker.Key == "" {
		errs = append(errs, "broker.key is required (set ADAFRUIT_IO_KEY environment variable)")
	}
	if c.Broker.KeepAlive <= 0 {
		errs = append(errs, "broker.keepalive must be positive")
	}
	if c.Broker.ReconnectDelay <= 0 {
		errs = append(errs, "broker.reconnect_delay must be positive")
	}

	if c.Polling.BaseTick <= 0 {
		errs = append(errs, "polling.base_tick must be positive")
	}
	if c.Polling.SecurityInterval <= 0 {
		errs = append(errs, "polling.security_interval must be positive")
	}
	if c.Polling.EnvInterval <= 0 {
		errs = append(errs, "polling.env_interval must be positive")
	}
	if c.Polling.DeviceInterval <= 0 {
		errs = append(errs, "polling.device_interval must be positive")
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, "storage.data_dir is required")
	}
	if c.Storage.FlushInterval <= 0 {
		errs = append(errs, "storage.flush_interval must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBaseTick returns the scheduler base tick as a Duration.
func (c *Config) GetBaseTick() time.Duration {
	return time.Duration(c.Polling.BaseTick) * time.Second
}

// GetSecurityInterval returns the security poll interval as a Duration.
func (c *Config) GetSecurityInterval() time.Duration {
	return time.Duration(c.Polling.SecurityInterval) * time.Second
}

// GetEnvInterval returns the environmental poll interval as a Duration.
func (c *Config) GetEnvInterval() time.Duration {
	return time.Duration(c.Polling.EnvInterval) * time.Second
}

// GetDeviceInterval returns the device status sweep interval as a Duration.
func (c *Config) GetDeviceInterval() time.Duration {
	return time.Duration(c.Polling.DeviceInterval) * time.Second
}

// GetFlushInterval returns the journal flush cadence as a Duration.
func (c *Config) GetFlushInterval() time.Duration {
	return time.Duration(c.Storage.FlushInterval) * time.Second
}

// GetReconnectDelay returns the broker reconnect delay as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.Broker.ReconnectDelay) * time.Second
}

// GetMinPublishGap returns the minimum inter-publish spacing as a Duration.
func (c *Config) GetMinPublishGap() time.Duration {
	return time.Duration(c.Broker.MinPublishGapMs) * time.Millisecond
}
