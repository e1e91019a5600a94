// Package config loads kinship settings: defaults, then an optional YAML
// file, then KINSHIP_* environment variables, then validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/kinship/internal/logging"
	"github.com/kittclouds/kinship/pkg/layout"
	"github.com/kittclouds/kinship/pkg/scene"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "KINSHIP_"

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	// DataPath is the SQLite database used by the CLI.
	DataPath string `yaml:"data_path" env:"DATA" validate:"required"`

	Log    logging.Config `yaml:"log" envPrefix:"LOG_"`
	Canvas CanvasConfig   `yaml:"canvas" envPrefix:"CANVAS_"`
	Node   NodeConfig     `yaml:"node" envPrefix:"NODE_"`
	Style  scene.Style    `yaml:"style"`
}

// CanvasConfig is the viewport size used for centring and SVG export.
type CanvasConfig struct {
	Width  int `yaml:"width" env:"WIDTH" validate:"gt=0"`
	Height int `yaml:"height" env:"HEIGHT" validate:"gt=0"`
}

// NodeConfig sizes person boxes.
type NodeConfig struct {
	Width  float64 `yaml:"width" env:"WIDTH" validate:"gt=0"`
	Height float64 `yaml:"height" env:"HEIGHT" validate:"gt=0"`
	Inset  float64 `yaml:"inset" env:"INSET" validate:"gte=0"`
}

// Metrics converts the node settings. The measurer is left for the caller.
func (n NodeConfig) Metrics() layout.Metrics {
	return layout.Metrics{BaseWidth: n.Width, BaseHeight: n.Height, TextInset: n.Inset}
}

// Default returns the stock configuration.
func Default() *Config {
	m := layout.DefaultMetrics()
	return &Config{
		DataPath: "kinship.db",
		Log: logging.Config{
			Level:       "info",
			JournalSize: logging.DefaultJournalSize,
		},
		Canvas: CanvasConfig{Width: 1200, Height: 800},
		Node:   NodeConfig{Width: m.BaseWidth, Height: m.BaseHeight, Inset: m.TextInset},
		Style:  scene.DefaultStyle(),
	}
}

// Load builds the configuration. path may be empty to skip the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
