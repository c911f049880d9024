// Package config loads bookmind settings from config.yaml and BOOKMIND_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings.
type Config struct {
	Backend        string `yaml:"backend" mapstructure:"backend"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	DBPath         string `yaml:"db_path" mapstructure:"db_path"`
	DefaultUser    string `yaml:"default_user" mapstructure:"default_user"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// DefaultConfig returns the local-backend defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Backend:        "local",
		BaseURL:        "http://localhost:8080",
		DBPath:         filepath.Join(home, ".bookmind", "books.db"),
		DefaultUser:    "reader",
		TimeoutSeconds: 30,
	}
}

// Load reads config.yaml from the working directory or the XDG config dir,
// then applies environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// AutomaticEnv only surfaces keys viper already knows about; register
	// the defaults so env-only overrides reach Unmarshal.
	viper.SetDefault("backend", cfg.Backend)
	viper.SetDefault("base_url", cfg.BaseURL)
	viper.SetDefault("db_path", cfg.DBPath)
	viper.SetDefault("default_user", cfg.DefaultUser)
	viper.SetDefault("timeout_seconds", cfg.TimeoutSeconds)

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "bookmind"))
	}
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(home, ".config", "bookmind"))

	viper.SetEnvPrefix("BOOKMIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backend modes.
func (c *Config) Validate() error {
	switch c.Backend {
	case "local", "remote":
	default:
		return fmt.Errorf("unknown backend %q (use local or remote)", c.Backend)
	}
	if c.Backend == "remote" && strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("remote backend requires base_url")
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
