package config

// Package config provides a reusable loader for synthub configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"synthub/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a synthub node. It mirrors
// the structure of the YAML files under cmd/config.
type Config struct {
	Chain struct {
		ID                   string `mapstructure:"id" json:"id"`
		BlockIntervalSeconds uint64 `mapstructure:"block_interval_seconds" json:"block_interval_seconds"`
	} `mapstructure:"chain" json:"chain"`

	Server struct {
		ListenAddr     string `mapstructure:"listen_addr" json:"listen_addr"`
		MetricsAddr    string `mapstructure:"metrics_addr" json:"metrics_addr"`
		MaxConnections int    `mapstructure:"max_connections" json:"max_connections"`
	} `mapstructure:"server" json:"server"`

	Hub struct {
		AdminAddress    string `mapstructure:"admin_address" json:"admin_address"`
		TreasuryAddress string `mapstructure:"treasury_address" json:"treasury_address"`
	} `mapstructure:"hub" json:"hub"`

	RemotePOS struct {
		UnbondingPeriodSeconds         uint64 `mapstructure:"unbonding_period_seconds" json:"unbonding_period_seconds"`
		EstimatedBlockIntervalSeconds  uint64 `mapstructure:"estimated_block_interval_seconds" json:"estimated_block_interval_seconds"`
		FeePayoutCooldownBlocks        uint64 `mapstructure:"fee_payout_cooldown_blocks" json:"fee_payout_cooldown_blocks"`
		MinimumUnbondIntervalSeconds   uint64 `mapstructure:"minimum_unbond_interval_seconds" json:"minimum_unbond_interval_seconds"`
	} `mapstructure:"remote_pos" json:"remote_pos"`

	Storage struct {
		DBPath string `mapstructure:"db_path" json:"db_path"`
		Prune  bool   `mapstructure:"prune" json:"prune"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level  string `mapstructure:"level" json:"level"`
		Format string `mapstructure:"format" json:"format"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
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

	viper.AutomaticEnv() // picks up environment variables

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the SYNTHUB_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("SYNTHUB_ENV", ""))
}
