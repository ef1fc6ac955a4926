package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Ledger.MaxAircraftCapacity)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
  shutdown_timeout: 5s
store:
  driver: postgres
  database_url: postgres://file
ledger:
  max_aircraft_capacity: 12
`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://env", cfg.Store.DatabaseURL)
	assert.Equal(t, 12, cfg.Ledger.MaxAircraftCapacity)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory", mutate: func(c *Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: true},
		{name: "postgres with url", mutate: func(c *Config) {
			c.Store.Driver = DriverPostgres
			c.Store.DatabaseURL = "postgres://localhost/airline"
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: true},
		{name: "zero capacity", mutate: func(c *Config) { c.Ledger.MaxAircraftCapacity = 0 }, wantErr: true},
		{name: "negative burst", mutate: func(c *Config) { c.RateLimit.Burst = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store:  Store{Driver: DriverMemory, MongoURI: "mongodb://localhost:27017"},
				Ledger: Ledger{MaxAircraftCapacity: 10},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdempotencyLockTTL(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, cfg.HTTP.WriteTimeout, cfg.IdempotencyLockTTL())

	t.Setenv("HTTP_WRITE_TIMEOUT", "45s")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.IdempotencyLockTTL())

	unbounded := &Config{HTTP: HTTP{WriteTimeout: 0}}
	assert.Equal(t, time.Minute, unbounded.IdempotencyLockTTL())
}

func TestLogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		cfg := &Config{Log: Log{Level: level}}
		assert.Equal(t, want, cfg.LogLevel(), level)
	}
}
