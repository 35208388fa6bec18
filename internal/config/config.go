package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	defaultCorsOrigin = "*"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// api
	ApiPrefix  string `toml:"api_prefix"`
	CorsOrigin string `toml:"cors_origin"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// store
	StoreBackend   string `toml:"store_backend"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	RunMigrations  bool   `toml:"run_migrations"`
	// DATABASE_URL env only, never read from the file
	DatabaseURL string `toml:"-"`
	// redis, used by the write rate limiter
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	WriteRateLimit int    `toml:"write_rate_limit_per_min"`
	// key the rate limiter on X-Real-Ip / X-Forwarded-For, only behind a proxy that sets them
	TrustProxyHeaders bool `toml:"trust_proxy_headers"`
	// server
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

// Duration lets TOML carry values such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path, picks the section for env and applies
// environment variable overrides.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}

	cfg.applyEnvOverrides(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if origin := getenv("CORS_ORIGINS"); origin != "" {
		c.CorsOrigin = origin
	}
	if dbURL := getenv("DATABASE_URL"); dbURL != "" {
		c.DatabaseURL = dbURL
	}
	if backend := getenv("FITTRACKER_STORE_BACKEND"); backend != "" {
		c.StoreBackend = backend
	}
}

func (c *Config) applyDefaults() {
	if c.CorsOrigin == "" {
		c.CorsOrigin = defaultCorsOrigin
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendPostgres
	}
	if c.ShutdownTimeout.Duration == 0 {
		c.ShutdownTimeout.Duration = 15 * time.Second
	}
	c.ApiPrefix = strings.TrimSuffix(c.ApiPrefix, "/")
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.ApiPrefix != "" && !strings.HasPrefix(c.ApiPrefix, "/") {
		return fmt.Errorf("api prefix must start with a slash: %s", c.ApiPrefix)
	}
	if c.WriteRateLimit < 0 {
		return errors.New("write rate limit cannot be negative")
	}
	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if c.DatabaseURL == "" && c.PostgresHost == "" {
			return errors.New("postgres store needs DATABASE_URL or postgres_host")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	return nil
}

// RateLimitEnabled reports whether write endpoints go through the redis limiter.
func (c *Config) RateLimitEnabled() bool {
	return c.WriteRateLimit > 0 && c.RedisHost != ""
}
