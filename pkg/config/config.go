// Package config provides configuration management for the graphexec CLI.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/graphexec/pkg/spawn"
)

// Config holds all configuration for the graphexec tooling.
type Config struct {
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Log     LogConfig     `mapstructure:"log"`
}

// RuntimeConfig holds execution-runtime configuration.
type RuntimeConfig struct {
	// Mode selects the default traversal: serial or parallel.
	Mode string `mapstructure:"mode"`
	// MaxWorkers bounds the parallelism of the process; zero keeps the
	// runtime default.
	MaxWorkers int `mapstructure:"max_workers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
}

// Load reads configuration from the specified file path, falling back to
// defaults when no file is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/graphexec")
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("runtime.mode", "parallel")
	v.SetDefault("runtime.max_workers", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, ok := spawn.ParseMode(c.Runtime.Mode); !ok {
		return fmt.Errorf("unsupported runtime mode: %s", c.Runtime.Mode)
	}
	if c.Runtime.MaxWorkers < 0 {
		return fmt.Errorf("max workers must not be negative")
	}
	return nil
}

// Mode returns the parsed default runtime mode.
func (c *Config) Mode() spawn.Mode {
	m, _ := spawn.ParseMode(c.Runtime.Mode)
	return m
}
