package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quasilyte/gdata/v2"
)

const (
	defaultGdataApp = "wheel"
	gdataObject     = "weights"
)

// GdataStore keeps the weights in the per-user application data directory
// managed by gdata, as a JSON property named after the weights key.
type GdataStore struct {
	manager *gdata.Manager
	key     string
}

// OpenGdata opens the gdata manager for app. key is usually the configured
// weights path; only its base name is used as the property.
func OpenGdata(app, key string) (*GdataStore, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrPathRequired
	}
	if app == "" {
		app = defaultGdataApp
	}
	manager, err := gdata.Open(gdata.Config{AppName: app})
	if err != nil {
		return nil, fmt.Errorf("open gdata %q: %w", app, err)
	}
	return &GdataStore{manager: manager, key: filepath.Base(key)}, nil
}

// Load reads the weights property.
func (s *GdataStore) Load(ctx context.Context, size int) LoadResult {
	if err := ctx.Err(); err != nil {
		return fallback(size, fmt.Errorf("%w: %w", ErrLoad, err))
	}
	if !s.manager.ObjectPropExists(gdataObject, s.key) {
		return Defaults(size)
	}

	data, err := s.manager.LoadObjectProp(gdataObject, s.key)
	if err != nil {
		return fallback(size, fmt.Errorf("%w: %s: %w", ErrLoad, s.key, err))
	}

	var weights []int
	if err := json.Unmarshal(data, &weights); err != nil {
		return fallback(size, fmt.Errorf("%w: %s: %w", ErrMalformed, s.key, err))
	}
	if err := validate(weights, size); err != nil {
		return fallback(size, err)
	}
	return LoadResult{Weights: weights, Source: SourceStore}
}

// Save overwrites the weights property.
func (s *GdataStore) Save(ctx context.Context, weights []int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if weights == nil {
		weights = []int{}
	}
	data, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSave, err)
	}
	if err := s.manager.SaveObjectProp(gdataObject, s.key, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSave, s.key, err)
	}
	return nil
}

// Close is a no-op; gdata holds no open handles.
func (s *GdataStore) Close() error { return nil }
