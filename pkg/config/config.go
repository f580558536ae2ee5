// Package config provides configuration management for GNsos.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Database: host, port, user, password, database, ssl_mode, batch_size
//   - Store: backend
//   - Redis: addr, password, db, lock_ttl
//   - Kafka: brokers, topic
//   - Minio: endpoint, access_key, secret_key, use_ssl
//   - Metrics: addr
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - Harvest.ProviderIDs, Harvest.Incremental, Harvest.MaxRecords
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNSOS_ prefix with underscores for nesting:
//
//	GNSOS_DATABASE_HOST=localhost
//	GNSOS_DATABASE_BATCH_SIZE=10000
//	GNSOS_REDIS_ADDR=localhost:6379
//	GNSOS_LOG_LEVEL=info
//	GNSOS_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete GNsos configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Store selects where verbatim collections are kept.
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Harvest contains settings specific to the harvest command.
	Harvest HarvestConfig `mapstructure:"harvest" yaml:"harvest"`

	// Redis is used for harvest locks. Empty address means
	// in-process locks.
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`

	// Kafka receives an event after every finished harvest.
	// No brokers means events are not published.
	Kafka KafkaConfig `mapstructure:"kafka" yaml:"kafka"`

	// Minio provides access to archives with s3:// locations.
	Minio MinioConfig `mapstructure:"minio" yaml:"minio"`

	// Metrics configures the prometheus endpoint of the schedule command.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for parallel operations.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize is the number of verbatim documents written per batch
	// and the page size of batched reads.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// StoreConfig selects the verbatim store backend.
type StoreConfig struct {
	// Backend is "postgres" or "memory". Memory store is lost when
	// the process exits and is meant for dry runs.
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// HarvestConfig contains runtime settings of the harvest command.
type HarvestConfig struct {
	// ProviderIDs is the list of data provider IDs to harvest.
	// Empty slice means all active providers from providers.yaml.
	ProviderIDs []int `mapstructure:"provider_ids" yaml:"provider_ids"`

	// Incremental requests harvesting of records changed after the
	// watermark of the previous successful run. Providers that do not
	// support it are harvested in full.
	Incremental bool `mapstructure:"incremental" yaml:"incremental"`

	// MaxRecords overrides max_records of every harvested provider.
	// Zero keeps provider settings.
	MaxRecords int `mapstructure:"max_records" yaml:"max_records"`
}

// RedisConfig contains settings of the harvest lock.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"     yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db"       yaml:"db"`
	// LockTTL is a Go duration string, lock expires after it.
	LockTTL string `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// KafkaConfig contains settings of harvest events publishing.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic"   yaml:"topic"`
}

// MinioConfig contains credentials for s3-compatible object storage.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"    yaml:"use_ssl"`
}

// MetricsConfig contains the address of prometheus endpoint.
type MetricsConfig struct {
	// Addr is host:port to serve /metrics on. Empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "gnsos",
			SSLMode:   "disable",
			BatchSize: 10_000,
		},
		Store: StoreConfig{
			Backend: "postgres",
		},
		Redis: RedisConfig{
			LockTTL: "6h",
		},
		Kafka: KafkaConfig{
			Topic: "gnsos.harvest",
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}

	return res
}
