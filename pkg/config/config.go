// Package config provides configuration loading and management for contrastcurve.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"contrastcurve/pkg/curve"
	"contrastcurve/pkg/mask"
)

// Environment variables that override file locations.
const (
	EnvConfigPath = "CONTRASTCURVE_CONFIG"
	EnvDataDir    = "CONTRASTCURVE_DATA_DIR"
)

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "contrastcurve.yaml"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Region of interest tracked over time
	Region mask.RegionSpec `yaml:"region"`

	// Analysis parameters
	Analysis struct {
		// ArrivalThreshold is the gradient a frame must exceed to mark contrast
		// arrival; 0 selects curve.DefaultArrivalThreshold
		ArrivalThreshold float64 `yaml:"arrivalThreshold"`

		// NumWorkers is the number of goroutines used to average frames (1 = sequential)
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"analysis"`

	// Input parameters
	Input struct {
		// DataDir is prepended to relative frame and metadata paths
		DataDir string `yaml:"dataDir"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// LogLevel is a zerolog level name; Verbose forces "debug"
		LogLevel string `yaml:"logLevel"`

		// ChartDir receives the signal and gradient charts; empty disables them
		ChartDir string `yaml:"chartDir"`

		// ReportFile receives the JSON report; empty disables it
		ReportFile string `yaml:"reportFile"`

		// WorkbookFile receives an Excel export of the curve; empty disables it
		WorkbookFile string `yaml:"workbookFile"`

		// Magnify is the integer zoom applied to the exported peak frame
		Magnify int `yaml:"magnify"`

		// SaveMaskedFrames exports every masked frame next to the charts
		SaveMaskedFrames bool `yaml:"saveMaskedFrames"`

		// MaskedFormat is "png" for magnified previews or "pgm" for the raw
		// masked samples
		MaskedFormat string `yaml:"maskedFormat"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// 5x5 region used for the left-ventricle blood pool in the reference data
	cfg.Region = mask.RegionSpec{KernelWidth: 5, KernelHeight: 5, CenterX: 74, CenterY: 90}

	cfg.Analysis.ArrivalThreshold = curve.DefaultArrivalThreshold
	cfg.Analysis.NumWorkers = runtime.NumCPU()

	cfg.Input.DataDir = "data"

	cfg.Output.Verbose = false
	cfg.Output.LogLevel = "info"
	cfg.Output.ChartDir = ""
	cfg.Output.ReportFile = ""
	cfg.Output.WorkbookFile = ""
	cfg.Output.Magnify = 4
	cfg.Output.SaveMaskedFrames = false
	cfg.Output.MaskedFormat = "png"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// ApplyEnv overrides file locations from the environment.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.Input.DataDir = dir
	}
}

// Validate checks value ranges that YAML typing cannot express.
func (c *Config) Validate() error {
	if err := c.Region.Validate(); err != nil {
		return err
	}
	if c.Analysis.ArrivalThreshold < 0 {
		return fmt.Errorf("arrivalThreshold must be non-negative, got %g", c.Analysis.ArrivalThreshold)
	}
	if c.Analysis.NumWorkers < 0 {
		return fmt.Errorf("numWorkers must be non-negative, got %d", c.Analysis.NumWorkers)
	}
	if c.Output.Magnify < 1 {
		return fmt.Errorf("magnify must be at least 1, got %d", c.Output.Magnify)
	}
	if f := c.Output.MaskedFormat; f != "png" && f != "pgm" {
		return fmt.Errorf("maskedFormat must be png or pgm, got %q", f)
	}
	if _, err := zerolog.ParseLevel(c.Output.LogLevel); err != nil {
		return fmt.Errorf("invalid logLevel %q: %w", c.Output.LogLevel, err)
	}
	return nil
}

// Level returns the zerolog level selected by Verbose and LogLevel.
func (c *Config) Level() zerolog.Level {
	if c.Output.Verbose {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(c.Output.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// ResolvePath joins relative paths onto the data directory.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Input.DataDir == "" {
		return path
	}
	return filepath.Join(c.Input.DataDir, path)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
