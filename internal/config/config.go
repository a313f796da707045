// Package config loads the server's configuration, layering defaults,
// environment variables (prefixed KVSTORE_, bound through Viper), and CLI
// flags (bound into the same Viper instance by cmd/kvstore), mirroring
// the env-prefix convention this stack's shared config package uses.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server's tunables: listen address, storage layout,
// cache sizing, partition count, and logging knobs.
type Config struct {
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind-address"`
	DataDir     string `mapstructure:"data-dir"`
	CacheSize   int    `mapstructure:"cache-size"`
	Partitions  int    `mapstructure:"partitions"`
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
}

// Defaults returns the configuration defaults: port 8080, bind-address
// 127.0.0.1, data-dir /tmp/kv_store, cache-size 1000 per partition, 8
// partitions, info-level JSON logging.
func Defaults() Config {
	return Config{
		Port:        8080,
		BindAddress: "127.0.0.1",
		DataDir:     "/tmp/kv_store",
		CacheSize:   1000,
		Partitions:  8,
		LogLevel:    "INFO",
		LogFormat:   "json",
	}
}

// Load builds a Viper instance seeded with defaults and bound to
// environment variables under the KVSTORE_ prefix, then unmarshals it
// into a Config. Flags are expected to have already been bound into v by
// the caller (cmd/kvstore binds Cobra's pflag set before calling Load),
// so flags take precedence over environment, which takes precedence over
// defaults.
func Load(v *viper.Viper) (Config, error) {
	def := Defaults()
	v.SetDefault("port", def.Port)
	v.SetDefault("bind-address", def.BindAddress)
	v.SetDefault("data-dir", def.DataDir)
	v.SetDefault("cache-size", def.CacheSize)
	v.SetDefault("partitions", def.Partitions)
	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("log-format", def.LogFormat)

	v.SetEnvPrefix("KVSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.CacheSize <= 0 {
		return Config{}, fmt.Errorf("config: cache-size must be positive, got %d", cfg.CacheSize)
	}
	if cfg.Partitions <= 0 {
		return Config{}, fmt.Errorf("config: partitions must be positive, got %d", cfg.Partitions)
	}
	return cfg, nil
}
