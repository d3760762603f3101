// Package config defines tunable parameters for the matching engine and AMM,
// loaded from defaults with FENRIR_* environment variable overrides.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the runtime-tunable parameters loaded at startup. There is no
// required config file: every field has a workable default, overridable
// individually via FENRIR_* env vars. cmd/server reads the AMM tuning fields,
// HealthAddr and Logging.Level; SqrtMaxIters, SqrtEpsilon, ListenAddr and
// WorkerPool are loaded but not read by anything in this module.
type Config struct {
	// AMM tuning (spec.md §4.5-4.6).
	MaxImpact        string `mapstructure:"max_impact"`
	ImpactMultiplier string `mapstructure:"impact_multiplier"`
	DefaultSlippage  string `mapstructure:"default_slippage"`

	// Decimal square-root iteration. The price-impact calculator uses
	// decimal.DefaultSqrtConfig, not these values.
	SqrtMaxIters int    `mapstructure:"sqrt_max_iters"`
	SqrtEpsilon  string `mapstructure:"sqrt_epsilon"`

	// Networking. The TCP server listens on a fixed 0.0.0.0:9001 with a
	// fixed worker count; only HealthAddr is used, by cmd/server.
	ListenAddr string `mapstructure:"listen_addr"`
	HealthAddr string `mapstructure:"health_addr"`
	WorkerPool int    `mapstructure:"worker_pool"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig controls zerolog's output level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func defaults() *viper.Viper {
	v := viper.New()
	v.SetDefault("max_impact", "0.25")
	v.SetDefault("impact_multiplier", "1.1")
	v.SetDefault("default_slippage", "0.02")
	v.SetDefault("sqrt_max_iters", 20)
	v.SetDefault("sqrt_epsilon", "0.0000000001")
	v.SetDefault("listen_addr", ":7878")
	v.SetDefault("health_addr", "127.0.0.1:9090")
	v.SetDefault("worker_pool", 8)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	return v
}

// Load builds a Config from built-in defaults, a YAML file if one exists at
// path, and FENRIR_-prefixed environment variable overrides, in that order
// of increasing precedence. A missing file at path is not an error: callers
// typically pass "" to run on defaults plus env alone.
func Load(path string) (*Config, error) {
	v := defaults()
	v.SetEnvPrefix("FENRIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
