// Package config provides a reusable loader for pool configuration files
// and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.2.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"fundingpool/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.2.0"

// Config is the on-disk/env-var shape of a pool's construction parameters —
// the host-facing counterpart of core.PoolConfig, kept as a separate,
// serialisable struct so hosts never need a viper or YAML dependency
// inside the engine package itself.
type Config struct {
	Pool struct {
		CycleSecs             uint64 `mapstructure:"cycle_secs" json:"cycle_secs"`
		SenderWeightsSumMax   uint32 `mapstructure:"sender_weights_sum_max" json:"sender_weights_sum_max"`
		SenderWeightsCountMax int    `mapstructure:"sender_weights_count_max" json:"sender_weights_count_max"`
		ProxyWeightsSum       uint32 `mapstructure:"proxy_weights_sum" json:"proxy_weights_sum"`
		ProxyWeightsCountMax  int    `mapstructure:"proxy_weights_count_max" json:"proxy_weights_count_max"`
	} `mapstructure:"pool" json:"pool"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // environment variables named like the keys override file values

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the POOL_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("POOL_ENV", ""))
}
