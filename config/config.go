package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Params  ParamsConfig  `mapstructure:"params"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// EngineConfig holds execution engine configuration.
type EngineConfig struct {
	TimeoutSec  int    `mapstructure:"timeout_sec"`
	MaxOutputKB int    `mapstructure:"max_output_kb"`
	MaxSteps    uint64 `mapstructure:"max_steps"`
	DatasetName string `mapstructure:"dataset_name"`
}

// ParamsConfig holds parameter extractor configuration.
type ParamsConfig struct {
	// CatalogPath points at a YAML pattern catalog file. Empty selects the
	// built-in catalog.
	CatalogPath string `mapstructure:"catalog_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration.
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("engine.timeout_sec", 30)
	viper.SetDefault("engine.max_output_kb", 256)
	viper.SetDefault("engine.max_steps", 0)
	viper.SetDefault("engine.dataset_name", "df")
	viper.SetDefault("params.catalog_path", "")
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid.
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.Transport == "http" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if c.Engine.TimeoutSec <= 0 {
		return fmt.Errorf("engine.timeout_sec must be positive, got: %d", c.Engine.TimeoutSec)
	}

	if c.Engine.MaxOutputKB <= 0 {
		return fmt.Errorf("engine.max_output_kb must be positive, got: %d", c.Engine.MaxOutputKB)
	}

	if !isIdentifier(c.Engine.DatasetName) {
		return fmt.Errorf("engine.dataset_name must be a valid identifier, got: %q", c.Engine.DatasetName)
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSec) * time.Second
}

// GetMaxOutputBytes returns the stdout capture cap in bytes.
func (c *Config) GetMaxOutputBytes() int {
	return c.Engine.MaxOutputKB * 1024
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
