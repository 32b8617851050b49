package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	APIPort     int    `mapstructure:"api_port"`
	Debug       bool   `mapstructure:"debug"`

	// LocalMode skips API authentication for single-user installs.
	LocalMode bool `mapstructure:"local_mode"`

	// MCPServers maps server name to launch configuration for the gateway.
	MCPServers map[string]MCPServerConfig `mapstructure:"mcp_servers"`

	Events EventsConfig `mapstructure:"events"`
}

// MCPServerConfig describes how the gateway reaches one MCP tool server:
// either a command to spawn (stdio transport) or a URL.
type MCPServerConfig struct {
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
	URL     string            `mapstructure:"url"`
}

// EventsConfig controls the NATS event bus.
type EventsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Embedded      bool   `mapstructure:"embedded"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Load reads configuration from the config file (when present) and
// OUTPOST_* environment variables, applying defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database_url", "outpost.db")
	v.SetDefault("api_port", 8585)
	v.SetDefault("debug", false)
	v.SetDefault("local_mode", false)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.embedded", true)
	v.SetDefault("events.subject_prefix", "outpost")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/outpost")

	v.SetEnvPrefix("outpost")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
