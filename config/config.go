// Package config loads and validates the evaluation configuration from
// YAML or JSON files with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/enerflow/orc/infra/mqtt"
)

type Config struct {
	Cycle     CycleConfig     `koanf:"cycle"`
	Source    SourceConfig    `koanf:"source"`
	Optimizer OptimizerConfig `koanf:"optimizer"`
	Safety    SafetyConfig    `koanf:"safety"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	MQTT      mqtt.Config     `koanf:"mqtt"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// Load reads the configuration file at path, applies ORC_ environment
// overrides (ORC_CYCLE__WORKING_FLUID maps to cycle.working_fluid),
// fills defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("ORC_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "orc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	cfg.Cycle.SetDefaults()
	cfg.Source.SetDefaults()
	cfg.Optimizer.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Cycle.Validate(); err != nil {
		return fmt.Errorf("cycle: %w", err)
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
