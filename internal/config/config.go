// Package config handles tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLOD is the number of level-of-detail slots a model file can describe.
const MaxLOD = 8

// Config holds all model-loading settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds asset locations. Later entries take priority over earlier ones,
// and archives over directories.
type DataConfig struct {
	SearchPaths   []string `yaml:"search_paths"`   // Directories searched for assets
	Archives      []string `yaml:"archives"`       // VPK directory files (*_dir.vpk)
	MaterialsRoot string   `yaml:"materials_root"` // Prefix of material and texture paths
	Cache         bool     `yaml:"cache"`          // Keep loaded files in memory
}

// ModelConfig holds decode settings.
type ModelConfig struct {
	LOD         int    `yaml:"lod"`
	StripSuffix string `yaml:"strip_suffix"` // Strip file variant, e.g. ".dx90.vtx"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			SearchPaths:   []string{"."},
			MaterialsRoot: "materials",
			Cache:         true,
		},
		Model: ModelConfig{
			LOD:         0,
			StripSuffix: ".dx90.vtx",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Model.LOD < 0 || c.Model.LOD >= MaxLOD {
		errs = append(errs, fmt.Errorf("model.lod %d outside [0,%d)", c.Model.LOD, MaxLOD))
	}
	if !strings.HasSuffix(c.Model.StripSuffix, ".vtx") {
		errs = append(errs, fmt.Errorf("model.strip_suffix %q must end in .vtx", c.Model.StripSuffix))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return errors.Join(errs...)
}
