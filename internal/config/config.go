package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client and the dev auth server.
type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Lookup   LookupConfig
	Stub     StubConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"freeler"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Backend   string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	Path      string `env:"STORAGE_PATH" envDefault:"freeler.db"`
	Namespace string `env:"STORAGE_NAMESPACE" envDefault:"freeler"`
}

// RedisConfig holds Redis connection values for the redis storage backend.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// PostgresConfig holds DB connection values for the dev auth server.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	MigrationsDir  string `env:"POSTGRES_MIGRATIONS_DIR" envDefault:"migrations"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
}

// AuthConfig points the client at the authentication service.
type AuthConfig struct {
	BaseURL        string `env:"AUTH_BASE_URL" envDefault:"http://127.0.0.1:8080"`
	TimeoutSeconds int    `env:"AUTH_TIMEOUT_SECONDS" envDefault:"15"`
}

// LookupConfig points the client at the national ID lookup service.
type LookupConfig struct {
	BaseURL        string `env:"LOOKUP_BASE_URL" envDefault:"http://127.0.0.1:8080"`
	TimeoutSeconds int    `env:"LOOKUP_TIMEOUT_SECONDS" envDefault:"10"`
	TriggerLength  int    `env:"LOOKUP_TRIGGER_LENGTH" envDefault:"8"`
}

// StubConfig configures the development authentication server.
type StubConfig struct {
	Host                  string `env:"STUB_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"STUB_PORT" envDefault:"8080"`
	JWTSecret             string `env:"STUB_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"STUB_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	BcryptCost            int    `env:"STUB_BCRYPT_COST" envDefault:"12"`
	RequestTimeoutSeconds int    `env:"STUB_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// Load reads configuration from .env and environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (s StubConfig) RequestTimeout() time.Duration {
	return seconds(s.RequestTimeoutSeconds)
}

// Timeout returns the auth call timeout.
func (a AuthConfig) Timeout() time.Duration {
	return seconds(a.TimeoutSeconds)
}

// Timeout returns the lookup call timeout.
func (l LookupConfig) Timeout() time.Duration {
	return seconds(l.TimeoutSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
