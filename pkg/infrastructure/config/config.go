// Package config holds the engine's deployment knobs: projection horizon,
// scan concurrency and timeouts, and the severity thresholds, with YAML
// file overrides over sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/foodsys/ruptura/pkg/domain/services"
)

// Config is the engine configuration
type Config struct {
	// HorizonDays is the default projection horizon.
	HorizonDays int `yaml:"horizon_days"`
	// MaxConcurrency bounds the catalog scan worker pool.
	MaxConcurrency int `yaml:"max_concurrency"`
	// PerItemTimeout bounds each product's projection during a scan.
	PerItemTimeout time.Duration `yaml:"per_item_timeout"`
	// DefaultCapacityQty sizes proactive AddCapacity reschedule proposals.
	DefaultCapacityQty float64 `yaml:"default_capacity_qty"`
	// Thresholds are the severity classification knobs.
	Thresholds services.Thresholds `yaml:"thresholds"`
}

// Default returns the stock configuration
func Default() Config {
	return Config{
		HorizonDays:        30,
		MaxConcurrency:     8,
		PerItemTimeout:     10 * time.Second,
		DefaultCapacityQty: 100,
		Thresholds:         services.DefaultThresholds(),
	}
}

// Load reads a YAML config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with
func (c Config) Validate() error {
	if c.HorizonDays < 0 {
		return fmt.Errorf("horizon_days cannot be negative, got %d", c.HorizonDays)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.PerItemTimeout < 0 {
		return fmt.Errorf("per_item_timeout cannot be negative, got %s", c.PerItemTimeout)
	}
	if c.Thresholds.CriticalWithinDays > c.Thresholds.AlertWithinDays {
		return fmt.Errorf("critical_within_days (%d) cannot exceed alert_within_days (%d)",
			c.Thresholds.CriticalWithinDays, c.Thresholds.AlertWithinDays)
	}
	return nil
}
