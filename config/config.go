package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/vultisig/zap-planner/internal/chains"
)

type Config struct {
	Server struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port int64  `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"server" json:"server"`

	Datadog struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port string `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"datadog" json:"datadog"`

	Paraswap struct {
		BaseURL     string        `mapstructure:"base_url" json:"base_url,omitempty"`
		SlippageBps uint32        `mapstructure:"slippage_bps" json:"slippage_bps,omitempty"`
		Partner     string        `mapstructure:"partner" json:"partner,omitempty"`
		Timeout     time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
	} `mapstructure:"paraswap" json:"paraswap"`

	Resolver struct {
		ProbeTimeout time.Duration `mapstructure:"probe_timeout" json:"probe_timeout,omitempty"`
	} `mapstructure:"resolver" json:"resolver"`

	// Planner is handed to zap.NewPlanner as is.
	Planner map[string]interface{} `mapstructure:"planner" json:"planner,omitempty"`

	Chains map[string]chains.ChainConfig `mapstructure:"chains" json:"chains"`

	LogLevel string `mapstructure:"log_level" json:"log_level,omitempty"`
}

func GetConfigure() (*Config, error) {
	configName := os.Getenv("ZAP_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}

	return ReadConfig(configName)
}

func ReadConfig(configName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("datadog.host", "localhost")
	v.SetDefault("datadog.port", "8125")
	v.SetDefault("resolver.probe_timeout", "3s")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fail to reading config file, %w", err)
	}
	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("no chains configured")
	}
	return &cfg, nil
}
