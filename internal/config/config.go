// Package config holds the runtime configuration of the dashboard API and CLI.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Command-line flags are applied last by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/sales-dashboard/internal/store"
)

// Log output formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config is the unified configuration.
type Config struct {
	// Port is the HTTP listen port
	Port int `yaml:"port"`

	// Timezone is the IANA location calendar dates in filters are interpreted in
	Timezone string `yaml:"timezone"`

	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Format is console or json
	Format string `yaml:"format"`

	// Level is a zerolog level name
	Level string `yaml:"level"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	// Backend is mongo, bigquery or memory
	Backend  string         `yaml:"backend"`
	Mongo    MongoConfig    `yaml:"mongo"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	Memory   MemoryConfig   `yaml:"memory"`
}

// MongoConfig locates the MongoDB collection.
type MongoConfig struct {
	URI                    string        `yaml:"uri"`
	Database               string        `yaml:"database"`
	Collection             string        `yaml:"collection"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`
	SocketTimeout          time.Duration `yaml:"socket_timeout"`
}

// BigQueryConfig locates the BigQuery table.
type BigQueryConfig struct {
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
	Table   string `yaml:"table"`
}

// MemoryConfig points at an extended-JSON snapshot, a local path or gs:// URI.
type MemoryConfig struct {
	Snapshot string `yaml:"snapshot"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Port:     8080,
		Timezone: "UTC",
		HTTP: HTTPConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Format: LogFormatConsole,
			Level:  "info",
		},
		Store: StoreConfig{
			Backend: store.BackendMongo,
			Mongo: MongoConfig{
				Database:               "truestate",
				Collection:             "truEstate",
				ServerSelectionTimeout: 5 * time.Second,
				SocketTimeout:          45 * time.Second,
			},
			BigQuery: BigQueryConfig{
				Dataset: "sales",
				Table:   "transactions",
			},
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (if any)
// and the environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv overrides cfg with any of the recognised environment variables.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("TZ_NAME"); v != "" {
		cfg.Timezone = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Store.Mongo.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		cfg.Store.Mongo.Database = v
	}
	if v := os.Getenv("MONGODB_COLLECTION"); v != "" {
		cfg.Store.Mongo.Collection = v
	}
	if v := os.Getenv("BQ_PROJECT"); v != "" {
		cfg.Store.BigQuery.Project = v
	}
	if v := os.Getenv("BQ_DATASET"); v != "" {
		cfg.Store.BigQuery.Dataset = v
	}
	if v := os.Getenv("BQ_TABLE"); v != "" {
		cfg.Store.BigQuery.Table = v
	}
	if v := os.Getenv("SNAPSHOT_URI"); v != "" {
		cfg.Store.Memory.Snapshot = v
	}

	for name, dst := range map[string]*time.Duration{
		"HTTP_READ_TIMEOUT":     &cfg.HTTP.ReadTimeout,
		"HTTP_WRITE_TIMEOUT":    &cfg.HTTP.WriteTimeout,
		"HTTP_IDLE_TIMEOUT":     &cfg.HTTP.IdleTimeout,
		"HTTP_SHUTDOWN_TIMEOUT": &cfg.HTTP.ShutdownTimeout,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		*dst = d
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Log.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Log.Format)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch c.Store.Backend {
	case store.BackendMongo:
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri (MONGODB_URI) is required for the mongo backend")
		}
		if c.Store.Mongo.Database == "" || c.Store.Mongo.Collection == "" {
			return fmt.Errorf("store.mongo.database and store.mongo.collection are required")
		}
	case store.BackendBigQuery:
		if c.Store.BigQuery.Project == "" {
			return fmt.Errorf("store.bigquery.project (BQ_PROJECT) is required for the bigquery backend")
		}
		if c.Store.BigQuery.Dataset == "" || c.Store.BigQuery.Table == "" {
			return fmt.Errorf("store.bigquery.dataset and store.bigquery.table are required")
		}
	case store.BackendMemory:
		if c.Store.Memory.Snapshot == "" {
			return fmt.Errorf("store.memory.snapshot (SNAPSHOT_URI) is required for the memory backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be mongo, bigquery, or memory)", c.Store.Backend)
	}

	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
