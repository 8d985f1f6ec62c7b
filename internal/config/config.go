// Package config defines the wheel's configuration and how it is loaded.
//
// Conventions:
// - New(ctx) returns a Config holding every default.
// - Load layers a YAML file and WHEEL_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig; loading failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/wheel/internal/adapters/store"
	"github.com/okian/wheel/internal/domain/selector"
)

// DefaultMaxWeight is the rescale cap: 2^40.
const DefaultMaxWeight = 1 << 40

// DefaultEntrants is the roster the wheel ships with.
var DefaultEntrants = []string{
	"Branden", "Caleb", "Kelly", "Kevin", "Nikita",
	"Surya", "Shayne", "Max", "Zoey", "Nick",
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Entrants is the ordered roster. Order must stay stable across runs
	// because weights are stored by position.
	Entrants []string `koanf:"entrants"`

	// WeightsPath is the weights file, the SQLite database, or the gdata key.
	WeightsPath string `koanf:"weights_path"`

	// Store names the persistence backend: file, sqlite, gdata, memory.
	Store string `koanf:"store"`

	// GdataApp is the application name used by the gdata backend.
	GdataApp string `koanf:"gdata_app"`

	// SelectionMode is eligible or full_sum.
	SelectionMode string `koanf:"selection_mode"`

	// MaxWeight caps any single weight before the vector is halved.
	MaxWeight int `koanf:"max_weight"`

	// Seed fixes the random source. Zero means a crypto-random seed.
	Seed int64 `koanf:"seed"`

	// MetricsTextfile, when set, receives a Prometheus textfile on shutdown.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Entrants:      append([]string(nil), DefaultEntrants...),
		WeightsPath:   "weights.json",
		Store:         string(store.BackendFile),
		GdataApp:      "wheel",
		SelectionMode: selector.ModeEligibleSum.String(),
		MaxWeight:     DefaultMaxWeight,
	}
}

// Validate normalizes the entrant list and checks every field.
func (c *Config) Validate() error {
	entrants := make([]string, 0, len(c.Entrants))
	for _, name := range c.Entrants {
		if name = strings.TrimSpace(name); name != "" {
			entrants = append(entrants, name)
		}
	}
	if len(entrants) == 0 {
		return fmt.Errorf("%w: entrants must not be empty", ErrInvalidConfig)
	}
	c.Entrants = entrants

	backend, err := c.Backend()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if backend != store.BackendMemory && strings.TrimSpace(c.WeightsPath) == "" {
		return fmt.Errorf("%w: weights_path must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxWeight < 2 {
		return fmt.Errorf("%w: max_weight must be at least 2, got %d", ErrInvalidConfig, c.MaxWeight)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Backend returns the parsed store backend.
func (c *Config) Backend() (store.Backend, error) {
	return store.ParseBackend(c.Store)
}

// Mode returns the parsed selection mode.
func (c *Config) Mode() (selector.Mode, error) {
	return selector.ParseMode(c.SelectionMode)
}
