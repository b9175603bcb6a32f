/*-------------------------------------------------------------------------
 *
 * config_test.go
 *    Tests for configuration loading and environment overrides
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "relayagent", cfg.Database.Database)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Orchestrator.MaxRecursionDepth)
	assert.Equal(t, 10, cfg.Orchestrator.HistoryWindow)
	assert.Equal(t, time.Second, cfg.Orchestrator.StepBackoffBase)
	assert.Equal(t, 4, cfg.Worker.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
database:
  host: db.internal
  password: sekret
orchestrator:
  max_recursion_depth: 3
  step_backoff_base: 2s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "sekret", cfg.Database.Password)
	assert.Equal(t, 3, cfg.Orchestrator.MaxRecursionDepth)
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.StepBackoffBase)
	assert.Equal(t, "debug", cfg.Logging.Level)

	/* untouched sections keep their defaults */
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config load failed")
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("RELAYAGENT_SERVER_PORT", "7070")
	t.Setenv("RELAYAGENT_DB_HOST", "pg.internal")
	t.Setenv("RELAYAGENT_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("RELAYAGENT_MAX_RECURSION_DEPTH", "8")
	t.Setenv("RELAYAGENT_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Orchestrator.MaxRecursionDepth)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("RELAYAGENT_SERVER_PORT", "not-a-port")
	t.Setenv("RELAYAGENT_MAX_RECURSION_DEPTH", "0")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Orchestrator.MaxRecursionDepth)
}

func TestConnString(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "relayagent",
		Password: "pw", Database: "relayagent", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=relayagent password=pw dbname=relayagent sslmode=disable",
		d.ConnString())
}
