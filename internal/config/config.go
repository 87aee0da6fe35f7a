// Package config loads carp.toml, the project-level configuration file
// consumed by cmd/carpgen and by Presence's builder.
package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// GeneralConfig controls source generation: where the compiled modules
// come from and where emitted Go sources land.
type GeneralConfig struct {
	OutputDir   string `toml:"output-dir,omitempty"`
	PackageName string `toml:"package-name,omitempty"`
	ModuleFile  string `toml:"module-file,omitempty"`
}

// RuntimeConfig controls the PathMap and Presence runtime (spec §4.3,
// §4.5). PackratWindow and DeferredQueueCapacity have defaults matching
// spec §9's Design Notes ("keep both the policy and its default window
// (~5s) configurable").
type RuntimeConfig struct {
	PackratWindow         Duration `toml:"packrat-window,omitempty"`
	DeferredQueueCapacity int      `toml:"deferred-queue-capacity,omitempty"`
	LocalShortCircuit     *bool    `toml:"local-short-circuit,omitempty"`
}

// Config is the top-level carp.toml shape.
type Config struct {
	General GeneralConfig `toml:"general"`
	Runtime RuntimeConfig `toml:"runtime"`
}

// Duration wraps time.Duration so it can be expressed in carp.toml as a
// plain string ("5s", "250ms") rather than a raw nanosecond integer.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const (
	defaultPackratWindow         = 5 * time.Second
	defaultDeferredQueueCapacity = 256
)

// Default returns the configuration used when no carp.toml is present.
func Default() *Config {
	shortCircuit := true
	return &Config{
		Runtime: RuntimeConfig{
			PackratWindow:         Duration{defaultPackratWindow},
			DeferredQueueCapacity: defaultDeferredQueueCapacity,
			LocalShortCircuit:     &shortCircuit,
		},
	}
}

// Load reads filename, merging it over Default(). A missing file is not
// an error — the defaults already apply.
func Load(filename string) (*Config, error) {
	cfg := Default()
	contents, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", filename, err)
	}
	if err := toml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", filename, err)
	}
	return cfg, nil
}

// PackratWindowOrDefault returns the configured retention window, or the
// documented default if unset.
func (c *Config) PackratWindowOrDefault() time.Duration {
	if c.Runtime.PackratWindow.Duration == 0 {
		return defaultPackratWindow
	}
	return c.Runtime.PackratWindow.Duration
}

// DeferredQueueCapacityOrDefault returns the configured deferred-callback
// queue capacity, or the default if unset.
func (c *Config) DeferredQueueCapacityOrDefault() int {
	if c.Runtime.DeferredQueueCapacity == 0 {
		return defaultDeferredQueueCapacity
	}
	return c.Runtime.DeferredQueueCapacity
}

// LocalShortCircuitOrDefault returns the configured short-circuit flag,
// defaulting to true per spec §6's configuration bag.
func (c *Config) LocalShortCircuitOrDefault() bool {
	if c.Runtime.LocalShortCircuit == nil {
		return true
	}
	return *c.Runtime.LocalShortCircuit
}
