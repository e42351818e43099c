// Package config loads the YAML configuration shared by the CLI and the API server.
package config

import (
	"fmt"
	"math"
	"os"

	"collision-sim/internal/physics"

	"gopkg.in/yaml.v2"
)

// Server holds REST API settings
type Server struct {
	Port int `yaml:"port"`
}

// RoadLoad holds the road-load approximation constants
type RoadLoad struct {
	FrontalAreaFactor  float64 `yaml:"frontal_area_factor"`
	RollingCoefficient float64 `yaml:"rolling_coefficient"`
}

// Telemetry holds the hard-braking detection settings
type Telemetry struct {
	SampleIntervalSec    float64 `yaml:"sample_interval_sec"`      // used when consecutive samples share a timestamp
	HardBrakingMPHPerSec float64 `yaml:"hard_braking_mph_per_sec"` // negative
}

// Config is the root of the YAML file
type Config struct {
	LogLevel        string              `yaml:"log_level"`
	Database        string              `yaml:"database"`
	Server          Server              `yaml:"server"`
	Environment     physics.Environment `yaml:"environment"`
	Friction        map[string]float64  `yaml:"friction,omitempty"` // merged over the built-in table
	DefaultFriction float64             `yaml:"default_friction"`
	RoadLoad        RoadLoad            `yaml:"road_load"`
	VehiclesFile    string              `yaml:"vehicles_file,omitempty"`
	Telemetry       Telemetry           `yaml:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:        "info",
		Database:        "telemetry.db",
		Server:          Server{Port: 8080},
		Environment:     physics.StandardEnvironment(),
		DefaultFriction: physics.DefaultFriction,
		RoadLoad:        RoadLoad{FrontalAreaFactor: 0.85, RollingCoefficient: 0.015},
		Telemetry:       Telemetry{SampleIntervalSec: 0.1, HardBrakingMPHPerSec: -10},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config file load err: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config file parse err: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects physically meaningless values.
func (c Config) Validate() error {
	if !(c.Environment.Gravity > 0) || math.IsInf(c.Environment.Gravity, 1) {
		return fmt.Errorf("environment.gravity must be positive, got %g", c.Environment.Gravity)
	}
	if !(c.Environment.AirDensity >= 0) || math.IsInf(c.Environment.AirDensity, 1) {
		return fmt.Errorf("environment.air_density must be finite and non-negative, got %g", c.Environment.AirDensity)
	}
	if err := c.FrictionTable().Validate(); err != nil {
		return err
	}
	if !(c.RoadLoad.FrontalAreaFactor > 0) {
		return fmt.Errorf("road_load.frontal_area_factor must be positive, got %g", c.RoadLoad.FrontalAreaFactor)
	}
	if !(c.RoadLoad.RollingCoefficient >= 0) {
		return fmt.Errorf("road_load.rolling_coefficient cannot be negative, got %g", c.RoadLoad.RollingCoefficient)
	}
	if !(c.Telemetry.SampleIntervalSec > 0) {
		return fmt.Errorf("telemetry.sample_interval_sec must be positive, got %g", c.Telemetry.SampleIntervalSec)
	}
	if !(c.Telemetry.HardBrakingMPHPerSec < 0) {
		return fmt.Errorf("telemetry.hard_braking_mph_per_sec must be negative, got %g", c.Telemetry.HardBrakingMPHPerSec)
	}
	return nil
}

// FrictionTable builds the surface table with file overrides applied.
func (c Config) FrictionTable() physics.FrictionTable {
	base := physics.StandardFriction()
	base.Fallback = c.DefaultFriction
	return base.With(c.Friction)
}

// RoadLoadCalculator builds the road-load calculator for the configured environment.
func (c Config) RoadLoadCalculator() physics.RoadLoad {
	return physics.RoadLoad{
		Env:                c.Environment,
		FrontalAreaFactor:  c.RoadLoad.FrontalAreaFactor,
		RollingCoefficient: c.RoadLoad.RollingCoefficient,
	}
}
