// Package config handles baker configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all baker settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig holds batch settings.
type BakeConfig struct {
	InputDir         string        `yaml:"input_dir"`
	OutputDir        string        `yaml:"output_dir"`
	Workers          int           `yaml:"workers"`
	Incremental      bool          `yaml:"incremental"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	Shader           string        `yaml:"shader"` // shader description, empty for the built-in one
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			InputDir:         "assets",
			OutputDir:        "baked",
			Workers:          runtime.NumCPU(),
			Incremental:      false,
			ProgressInterval: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings a bake cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Bake.InputDir == "" {
		errs = append(errs, errors.New("bake.input_dir is empty"))
	}
	if c.Bake.OutputDir == "" {
		errs = append(errs, errors.New("bake.output_dir is empty"))
	}
	if c.Bake.InputDir != "" && filepath.Clean(c.Bake.InputDir) == filepath.Clean(c.Bake.OutputDir) {
		errs = append(errs, fmt.Errorf("bake.output_dir must differ from bake.input_dir: %s", c.Bake.InputDir))
	}
	if c.Bake.Workers < 0 {
		errs = append(errs, fmt.Errorf("bake.workers is negative: %d", c.Bake.Workers))
	}
	if c.Bake.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("bake.progress_interval is negative: %v", c.Bake.ProgressInterval))
	}
	return errors.Join(errs...)
}
