package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// filePermission is the mode of a newly created weights file.
const filePermission fs.FileMode = 0o644

// format is the on-disk encoding of a weights file.
type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatFor(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// FileStore keeps the weights in a single file: a JSON array by default,
// a YAML sequence when the path ends in .yaml or .yml.
type FileStore struct {
	path   string
	format format
}

// NewFileStore creates a store for the file at path. The file need not exist.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	return &FileStore{path: filepath.Clean(path), format: formatFor(path)}, nil
}

// Path returns the weights file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the weights file. A missing file yields defaults with no cause.
func (s *FileStore) Load(ctx context.Context, size int) LoadResult {
	if err := ctx.Err(); err != nil {
		return fallback(size, fmt.Errorf("%w: %w", ErrLoad, err))
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(size)
	}
	if err != nil {
		return fallback(size, fmt.Errorf("%w: %s: %w", ErrLoad, s.path, err))
	}

	weights, err := s.decode(data)
	if err != nil {
		return fallback(size, fmt.Errorf("%w: %s: %w", ErrMalformed, s.path, err))
	}
	if err := validate(weights, size); err != nil {
		return fallback(size, fmt.Errorf("%s: %w", s.path, err))
	}
	return LoadResult{Weights: weights, Source: SourceStore}
}

// Save replaces the weights file. The new content is written to a temporary
// file in the same directory and renamed over the old one. A read-only file
// is refused with ErrSave rather than replaced.
func (s *FileStore) Save(ctx context.Context, weights []int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	data, err := s.encode(weights)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrSave, err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSave, s.path, err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) decode(data []byte) ([]int, error) {
	var weights []int
	switch s.format {
	case formatYAML:
		if err := yaml.Unmarshal(data, &weights); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &weights); err != nil {
			return nil, err
		}
	}
	return weights, nil
}

func (s *FileStore) encode(weights []int) ([]byte, error) {
	if weights == nil {
		weights = []int{}
	}
	if s.format == formatYAML {
		return yaml.Marshal(weights)
	}
	return json.Marshal(weights)
}

// writeFileAtomic replaces path through a temporary sibling and a rename.
// An existing file keeps its permission bits and must be writable by the
// caller; a symlinked path has its target replaced and the link kept.
func writeFileAtomic(path string, data []byte) error {
	target, perm, err := replaceTarget(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename has happened.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

// replaceTarget resolves the file a save should replace and the mode the
// replacement gets. A missing file is created with filePermission.
func replaceTarget(path string) (string, fs.FileMode, error) {
	target, err := filepath.EvalSymlinks(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, filePermission, nil
	}
	if err != nil {
		return "", 0, err
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", 0, err
	}
	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("%s: not a regular file", target)
	}
	// The rename only needs a writable directory, so check the file itself.
	f, err := os.OpenFile(target, os.O_WRONLY, 0)
	if err != nil {
		return "", 0, err
	}
	if err := f.Close(); err != nil {
		return "", 0, err
	}
	return target, info.Mode().Perm(), nil
}

// LoadFile loads size weights from the file at path.
func LoadFile(ctx context.Context, path string, size int) LoadResult {
	s, err := NewFileStore(path)
	if err != nil {
		return fallback(size, fmt.Errorf("%w: %w", ErrLoad, err))
	}
	return s.Load(ctx, size)
}

// SaveFile writes weights to the file at path.
func SaveFile(ctx context.Context, path string, weights []int) error {
	s, err := NewFileStore(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return s.Save(ctx, weights)
}
