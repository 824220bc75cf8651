package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// demoConfig is the small layered config cmd/neads-demo reads: a budget
// for the spill-aware complex algorithm and the algorithm to run, in the
// manner teranos-QNTX's `am` package layers viper over flags (spec.md §3).
type demoConfig struct {
	BudgetBytes uint64 `mapstructure:"budget_bytes"`
	Algorithm   string `mapstructure:"algorithm"`
}

func defaultConfig() demoConfig {
	return demoConfig{BudgetBytes: 64 * 1024 * 1024, Algorithm: "complex"}
}

// loadConfig reads an optional YAML file at path (if non-empty and
// present) over the defaults; flags set on the command line, applied by
// the caller after this returns, take final precedence.
func loadConfig(path string) (demoConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("budget_bytes", cfg.BudgetBytes)
	v.SetDefault("algorithm", cfg.Algorithm)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("neads-demo: reading config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("neads-demo: decoding config %s: %w", path, err)
	}
	return cfg, nil
}
