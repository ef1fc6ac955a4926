package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	App       App       `yaml:"app"`
	HTTP      HTTP      `yaml:"http"`
	Log       Log       `yaml:"log"`
	Store     Store     `yaml:"store"`
	Redis     Redis     `yaml:"redis"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Ledger    Ledger    `yaml:"ledger"`
}

type App struct {
	Name string `yaml:"name" env:"APP_NAME" env-default:"airline-backoffice"`
}

type HTTP struct {
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Store struct {
	Driver        string `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
	DatabaseURL   string `yaml:"database_url" env:"DATABASE_URL"`
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"airline"`
}

// Redis backs the idempotency middleware. An empty Addr disables it.
type Redis struct {
	Addr           string        `yaml:"addr" env:"REDIS_ADDR"`
	Password       string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB             int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" env:"IDEMPOTENCY_TTL" env-default:"24h"`
}

type RateLimit struct {
	RequestsPerSecond float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"50"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"100"`
}

type Ledger struct {
	MaxAircraftCapacity int `yaml:"max_aircraft_capacity" env:"MAX_AIRCRAFT_CAPACITY" env-default:"10"`
}

// New reads config.yaml (or the file named by CONFIG_PATH) when present and
// lets the environment override it.
func New() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("config error: DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("config error: MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("config error: unknown store driver %q", c.Store.Driver)
	}
	if c.Ledger.MaxAircraftCapacity < 1 {
		return fmt.Errorf("config error: max aircraft capacity must be positive, got %d", c.Ledger.MaxAircraftCapacity)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("config error: rate limit must not be negative")
	}
	return nil
}

// defaultLockTTL bounds idempotent requests when writes are not time limited
const defaultLockTTL = time.Minute

// IdempotencyLockTTL is how long an idempotent request may run while it
// holds its key. It follows the HTTP write timeout, past which the client
// can no longer receive the response anyway.
func (c *Config) IdempotencyLockTTL() time.Duration {
	if c.HTTP.WriteTimeout <= 0 {
		return defaultLockTTL
	}
	return c.HTTP.WriteTimeout
}

// LogLevel maps the configured level name, defaulting to info
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
