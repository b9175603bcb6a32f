/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration management for RelayAgent
 *
 * Provides YAML file configuration with environment variable overrides
 * for the server, database, language model, orchestrator, worker, and
 * logging sections.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	LLM          LLMConfig          `yaml:"llm"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Worker       WorkerConfig       `yaml:"worker"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type OrchestratorConfig struct {
	MaxRecursionDepth  int           `yaml:"max_recursion_depth"`
	HistoryWindow      int           `yaml:"history_window"`
	KnowledgeTopK      int           `yaml:"knowledge_top_k"`
	ChunkMaxChars      int           `yaml:"chunk_max_chars"`
	ToolResultMaxChars int           `yaml:"tool_result_max_chars"`
	StepBackoffBase    time.Duration `yaml:"step_backoff_base"`
	ActionTimeout      time.Duration `yaml:"action_timeout"`
}

type WorkerConfig struct {
	Workers      int           `yaml:"workers"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

/* DefaultConfig returns a configuration with sane defaults */
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8085,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "relayagent",
			Password:        "",
			Database:        "relayagent",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			MaxRecursionDepth:  5,
			HistoryWindow:      10,
			KnowledgeTopK:      5,
			ChunkMaxChars:      1500,
			ToolResultMaxChars: 4000,
			StepBackoffBase:    time.Second,
			ActionTimeout:      30 * time.Second,
		},
		Worker: WorkerConfig{
			Workers:      4,
			PollInterval: time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

/* LoadConfig loads configuration from a YAML file over the defaults */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: path='%s', error=%w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config parse failed: path='%s', error=%w", path, err)
	}

	LoadFromEnv(cfg)
	return cfg, nil
}

/* LoadFromEnv applies environment variable overrides to a configuration */
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("RELAYAGENT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RELAYAGENT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RELAYAGENT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RELAYAGENT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("RELAYAGENT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("RELAYAGENT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RELAYAGENT_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("RELAYAGENT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RELAYAGENT_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("RELAYAGENT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("RELAYAGENT_MAX_RECURSION_DEPTH"); v != "" {
		if depth, err := strconv.Atoi(v); err == nil && depth > 0 {
			cfg.Orchestrator.MaxRecursionDepth = depth
		}
	}
	if v := os.Getenv("RELAYAGENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RELAYAGENT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

/* ConnString builds the lib/pq connection string for the database section */
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}
