// Package config provides a reusable loader for chain-client configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/opentensor/subtensor-go/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a chain client instance. It mirrors
// the structure of the YAML files under config/.
type Config struct {
	Network struct {
		// Name selects a well-known preset ("finney", "test", "archive",
		// "local"). Empty means Endpoint is used verbatim.
		Name     string `mapstructure:"name" json:"name"`
		Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	} `mapstructure:"network" json:"network"`

	Transport struct {
		RequestTimeoutMS  int `mapstructure:"request_timeout_ms" json:"request_timeout_ms"`
		ReconnectBaseMS   int `mapstructure:"reconnect_base_ms" json:"reconnect_base_ms"`
		ReconnectCapMS    int `mapstructure:"reconnect_cap_ms" json:"reconnect_cap_ms"`
		UnhealthyTimeouts int `mapstructure:"unhealthy_timeouts" json:"unhealthy_timeouts"`
	} `mapstructure:"transport" json:"transport"`

	Metadata struct {
		CustomTypesFile string `mapstructure:"custom_types_file" json:"custom_types_file"`
		RuntimeAPIFile  string `mapstructure:"runtime_api_file" json:"runtime_api_file"`
	} `mapstructure:"metadata" json:"metadata"`

	Cache struct {
		BlockHashLRUSize int `mapstructure:"block_hash_lru_size" json:"block_hash_lru_size"`
	} `mapstructure:"cache" json:"cache"`

	Extrinsic struct {
		MortalPeriod int  `mapstructure:"mortal_period" json:"mortal_period"`
		DefaultTip   uint `mapstructure:"default_tip" json:"default_tip"`
	} `mapstructure:"extrinsic" json:"extrinsic"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// RequestTimeout returns the configured per-RPC soft deadline, defaulting
// to 30s when unset.
func (c *Config) RequestTimeout() time.Duration {
	if c.Transport.RequestTimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Transport.RequestTimeoutMS) * time.Millisecond
}

// ReconnectBase returns the reconnect backoff base, defaulting to 100ms.
func (c *Config) ReconnectBase() time.Duration {
	if c.Transport.ReconnectBaseMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.Transport.ReconnectBaseMS) * time.Millisecond
}

// ReconnectCap returns the reconnect backoff ceiling, defaulting to 30s.
func (c *Config) ReconnectCap() time.Duration {
	if c.Transport.ReconnectCapMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Transport.ReconnectCapMS) * time.Millisecond
}

// BlockHashLRUSize returns the configured block-hash LRU capacity, defaulting
// to 128 entries when unset.
func (c *Config) BlockHashLRUSize() int {
	if c.Cache.BlockHashLRUSize <= 0 {
		return 128
	}
	return c.Cache.BlockHashLRUSize
}

// Default returns a Config populated with the library's hardcoded defaults,
// used when no YAML/env configuration is present.
func Default() Config {
	var c Config
	c.Network.Name = "finney"
	c.Transport.RequestTimeoutMS = 30_000
	c.Transport.ReconnectBaseMS = 100
	c.Transport.ReconnectCapMS = 30_000
	c.Transport.UnhealthyTimeouts = 3
	c.Cache.BlockHashLRUSize = 128
	c.Extrinsic.MortalPeriod = 64
	c.Logging.Level = "info"
	return c
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	AppConfig = Default()

	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("SUBTENSOR")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the SUBTENSOR_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("SUBTENSOR_ENV", ""))
}
