package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
log_to_stdout = true
frontend_url = "http://localhost:5173"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "portfolio_db"
redis_host = "localhost"
redis_port = "6379"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
api_rate_limit_window_minutes = 15
api_rate_limit_max = 100
login_rate_limit_window_minutes = 15
login_rate_limit_max = 5
contact_rate_limit_window_minutes = 15
contact_rate_limit_max = 3
stats_cache_ttl_seconds = 60

[production]
host = "0.0.0.0"
port = 5000
log_level = "debug"
logs_path = "/var/log/portfolio/service.log"
sentry_enabled = true
frontend_url = "https://portfolio.example.com"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "portfolio_db"
redis_host = "localhost"
redis_port = "6379"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
api_rate_limit_window_minutes = 15
api_rate_limit_max = 100
login_rate_limit_window_minutes = 15
login_rate_limit_max = 5
contact_rate_limit_window_minutes = 15
contact_rate_limit_max = 3
stats_cache_ttl_seconds = 60
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTestConfig(t)

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 100, cfg.APIRateLimitMax)
	assert.Equal(t, 5, cfg.LoginRateLimitMax)
	assert.Equal(t, 3, cfg.ContactRateLimitMax)
	assert.Equal(t, 15, cfg.ContactRateLimitWindowMinutes)

	prodCfg, err := Load("prod", path)
	require.NoError(t, err)
	assert.Equal(t, 5000, prodCfg.Port)
	assert.True(t, prodCfg.SentryEnabled)
}

func TestLoad_unknownEnv(t *testing.T) {
	path := writeTestConfig(t)
	_, err := Load("staging", path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                          5000,
			PostgresHost:                  "localhost",
			PostgresPort:                  "5432",
			PostgresDBName:                "portfolio_db",
			APIRateLimitWindowMinutes:     15,
			APIRateLimitMax:               100,
			LoginRateLimitWindowMinutes:   15,
			LoginRateLimitMax:             5,
			ContactRateLimitWindowMinutes: 15,
			ContactRateLimitMax:           3,
		}
	}

	require.NoError(t, valid().Validate())

	noPort := valid()
	noPort.Port = 0
	assert.Error(t, noPort.Validate())

	zeroWindow := valid()
	zeroWindow.LoginRateLimitWindowMinutes = 0
	assert.Error(t, zeroWindow.Validate())

	zeroMax := valid()
	zeroMax.ContactRateLimitMax = 0
	assert.Error(t, zeroMax.Validate())
}
