// Package store persists the wheel's weight vector.
//
// Only weights are stored, by position; callers keep the entrant list in
// the same order across runs. Loading never fails: a missing or unusable
// resource yields all-ones defaults and says why in the LoadResult.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source tells where loaded weights came from.
type Source int

const (
	// SourceStore means the weights were read from the backing store.
	SourceStore Source = iota
	// SourceDefault means all-ones defaults were substituted.
	SourceDefault
)

// Fallback reasons reported by LoadResult.Reason.
const (
	ReasonNone       = ""
	ReasonMissing    = "missing"
	ReasonMalformed  = "malformed"
	ReasonUnreadable = "unreadable"
)

// LoadResult is the outcome of Store.Load.
type LoadResult struct {
	Weights []int
	Source  Source
	// Cause explains a fallback to defaults. It is nil when the weights were
	// loaded and when there was simply nothing stored yet.
	Cause error
}

// Reason classifies a fallback for logs and metrics.
func (r LoadResult) Reason() string {
	switch {
	case r.Source == SourceStore:
		return ReasonNone
	case r.Cause == nil:
		return ReasonMissing
	case errors.Is(r.Cause, ErrMalformed):
		return ReasonMalformed
	default:
		return ReasonUnreadable
	}
}

// Store provides durable round-trips of the weight vector.
type Store interface {
	// Load returns the stored vector for size entrants, or defaults.
	Load(ctx context.Context, size int) LoadResult
	// Save overwrites the stored vector. Failures are wrapped with ErrSave.
	Save(ctx context.Context, weights []int) error
	// Close releases any handles held by the store.
	Close() error
}

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendGdata  Backend = "gdata"
	BackendMemory Backend = "memory"
)

// ParseBackend parses a backend name (case-insensitive, empty means file).
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendSQLite, BackendGdata, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Option applies a configuration option to Open.
type Option func(*openConfig)

type openConfig struct {
	gdataApp string
}

// WithGdataApp sets the application name the gdata backend stores under.
func WithGdataApp(app string) Option {
	return func(c *openConfig) {
		if app != "" {
			c.gdataApp = app
		}
	}
}

// Open builds the store for backend. path is the weights file, the SQLite
// database, or the gdata property key depending on the backend.
func Open(backend Backend, path string, opts ...Option) (Store, error) {
	cfg := &openConfig{gdataApp: defaultGdataApp}
	for _, opt := range opts {
		opt(cfg)
	}

	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendGdata:
		return OpenGdata(cfg.gdataApp, path)
	case BackendMemory:
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Defaults returns a LoadResult holding size ones.
func Defaults(size int) LoadResult {
	return LoadResult{Weights: defaultWeights(size), Source: SourceDefault}
}

func fallback(size int, cause error) LoadResult {
	return LoadResult{Weights: defaultWeights(size), Source: SourceDefault, Cause: cause}
}

func defaultWeights(size int) []int {
	if size < 0 {
		size = 0
	}
	weights := make([]int, size)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// validate checks a decoded vector against the entrant count and the floor.
func validate(weights []int, size int) error {
	if len(weights) != size {
		return fmt.Errorf("%w: have %d weights, want %d", ErrMalformed, len(weights), size)
	}
	for i, w := range weights {
		if w < 1 {
			return fmt.Errorf("%w: weight %d at position %d is below 1", ErrMalformed, w, i)
		}
	}
	return nil
}
