package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// the frontend origin allowed by CORS
	FrontendURL string `toml:"frontend_url"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// admission control, fixed windows per client address
	APIRateLimitWindowMinutes     int `toml:"api_rate_limit_window_minutes"`
	APIRateLimitMax               int `toml:"api_rate_limit_max"`
	LoginRateLimitWindowMinutes   int `toml:"login_rate_limit_window_minutes"`
	LoginRateLimitMax             int `toml:"login_rate_limit_max"`
	ContactRateLimitWindowMinutes int `toml:"contact_rate_limit_window_minutes"`
	ContactRateLimitMax           int `toml:"contact_rate_limit_max"`

	// analytics stats response cache
	StatsCacheTTLSeconds int `toml:"stats_cache_ttl_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	cfg.Environment = env
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate fails fast on startup instead of failing per-request later.
func (c *Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive, got %d", c.Port)
	}
	if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
		return fmt.Errorf("postgres host, port and db name are required")
	}
	for _, rl := range []struct {
		name          string
		windowMinutes int
		max           int
	}{
		{"api", c.APIRateLimitWindowMinutes, c.APIRateLimitMax},
		{"login", c.LoginRateLimitWindowMinutes, c.LoginRateLimitMax},
		{"contact", c.ContactRateLimitWindowMinutes, c.ContactRateLimitMax},
	} {
		if rl.windowMinutes <= 0 {
			return fmt.Errorf("%s rate limit window must be positive, got %d", rl.name, rl.windowMinutes)
		}
		if rl.max <= 0 {
			return fmt.Errorf("%s rate limit max must be positive, got %d", rl.name, rl.max)
		}
	}
	if c.StatsCacheTTLSeconds < 0 {
		return fmt.Errorf("stats cache ttl must not be negative, got %d", c.StatsCacheTTLSeconds)
	}
	return nil
}
