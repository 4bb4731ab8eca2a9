package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/sales-dashboard/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "TZ_NAME", "LOG_FORMAT", "LOG_LEVEL", "STORE_BACKEND",
		"MONGODB_URI", "MONGODB_DATABASE", "MONGODB_COLLECTION",
		"BQ_PROJECT", "BQ_DATASET", "BQ_TABLE", "SNAPSHOT_URI",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, store.BackendMongo, cfg.Store.Backend)
	assert.Equal(t, "truestate", cfg.Store.Mongo.Database)
	assert.Equal(t, "truEstate", cfg.Store.Mongo.Collection)
	assert.Equal(t, 5*time.Second, cfg.Store.Mongo.ServerSelectionTimeout)
	assert.Equal(t, 45*time.Second, cfg.Store.Mongo.SocketTimeout)
	assert.Equal(t, ":8080", cfg.Addr())

	// Defaults alone lack a MongoDB URI.
	assert.ErrorContains(t, cfg.Validate(), "MONGODB_URI")
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
timezone: Asia/Kolkata
http:
  read_timeout: 5s
log:
  format: json
store:
  backend: memory
  memory:
    snapshot: ./data/sales.json
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "./data/sales.json", cfg.Store.Memory.Snapshot)
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	t.Setenv("PORT", "eighty")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid PORT")

	t.Setenv("PORT", "")
	t.Setenv("HTTP_IDLE_TIMEOUT", "forever")
	_, err = Load("")
	assert.ErrorContains(t, err, "HTTP_IDLE_TIMEOUT")
}

func TestLoadFromEnv_Store(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "BigQuery")
	t.Setenv("BQ_PROJECT", "acme")
	t.Setenv("BQ_TABLE", "sales_2023")

	cfg := DefaultConfig()
	require.NoError(t, LoadFromEnv(cfg))

	assert.Equal(t, store.BackendBigQuery, cfg.Store.Backend)
	assert.Equal(t, "acme", cfg.Store.BigQuery.Project)
	assert.Equal(t, "sales", cfg.Store.BigQuery.Dataset)
	assert.Equal(t, "sales_2023", cfg.Store.BigQuery.Table)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Store.Mongo.URI = "mongodb://localhost:27017"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port must be between"},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }, "invalid store backend"},
		{"bigquery without project", func(c *Config) { c.Store.Backend = store.BackendBigQuery }, "BQ_PROJECT"},
		{"memory without snapshot", func(c *Config) { c.Store.Backend = store.BackendMemory }, "SNAPSHOT_URI"},
		{"mongo without collection", func(c *Config) { c.Store.Mongo.Collection = "" }, "store.mongo.collection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
