// Package config is the configuration store: user-entered physical and
// economic parameters in a YAML file, with documented defaults and a single
// validation boundary.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zonnecheck/zonnecheck/pkg/types"
)

// Simulation holds the run-level tuning knobs.
type Simulation struct {
	// Expected sample spacing in minutes. Used for the first step and for
	// gap detection.
	NominalIntervalMinutes int `yaml:"nominal_interval_minutes"`
	// Multiple of the nominal interval beyond which a gap is warned about.
	GapWarnFactor float64 `yaml:"gap_warn_factor"`
	// Allowed disagreement between metered grid columns and the derived
	// surplus/deficit before a data-quality warning.
	SurplusToleranceWH float64 `yaml:"surplus_tolerance_wh"`
}

// NominalInterval returns the nominal sample spacing as a duration.
func (s Simulation) NominalInterval() time.Duration {
	return time.Duration(s.NominalIntervalMinutes) * time.Minute
}

// Config is the on-disk configuration shape.
type Config struct {
	Economic   types.EconomicParameters `yaml:"economic"`
	Boiler     types.BoilerParams       `yaml:"boiler"`
	Battery    types.BatteryParams      `yaml:"battery"`
	Simulation Simulation               `yaml:"simulation"`
}

// Default returns the full documented default configuration.
func Default() Config {
	return Config{
		Economic: types.DefaultEconomicParameters(),
		Boiler:   types.DefaultBoilerParams(),
		Battery:  types.DefaultBatteryParams(),
		Simulation: Simulation{
			NominalIntervalMinutes: 15,
			GapWarnFactor:          4,
			SurplusToleranceWH:     100,
		},
	}
}

// Load reads the configuration at path, filling any omitted values with
// defaults and validating the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func Save(path string, cfg Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks every section once, at this boundary.
func (c Config) Validate() error {
	if err := c.Economic.Validate(); err != nil {
		return err
	}
	if err := c.Boiler.Validate(); err != nil {
		return err
	}
	if err := c.Battery.Validate(); err != nil {
		return err
	}
	if c.Simulation.NominalIntervalMinutes <= 0 {
		return &types.ConfigurationError{
			Param:  "simulation.nominal_interval_minutes",
			Value:  float64(c.Simulation.NominalIntervalMinutes),
			Reason: "must be positive",
		}
	}
	if c.Simulation.GapWarnFactor <= 0 {
		return &types.ConfigurationError{
			Param:  "simulation.gap_warn_factor",
			Value:  c.Simulation.GapWarnFactor,
			Reason: "must be positive",
		}
	}
	if c.Simulation.SurplusToleranceWH <= 0 {
		return &types.ConfigurationError{
			Param:  "simulation.surplus_tolerance_wh",
			Value:  c.Simulation.SurplusToleranceWH,
			Reason: "must be positive",
		}
	}
	return nil
}
