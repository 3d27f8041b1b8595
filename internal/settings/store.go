package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps settings in a YAML file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Snapshot implements Source.
func (f *FileStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return f.Load()
}

// Load reads the file. A missing or empty file yields Default; keys absent
// from the file keep their default values.
func (f *FileStore) Load() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) load() (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrInvalid, f.path, err)
	}
	return s.Normalized(), nil
}

// Save normalizes s and writes it.
func (f *FileStore) Save(s Snapshot) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(s)
}

// Update loads the settings, applies fn and saves the result.
func (f *FileStore) Update(fn func(*Snapshot)) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return Snapshot{}, err
	}
	fn(&s)
	return f.save(s)
}

func (f *FileStore) save(s Snapshot) (Snapshot, error) {
	s = s.Normalized()
	data, err := yaml.Marshal(s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return Snapshot{}, fmt.Errorf("create settings directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return Snapshot{}, fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return Snapshot{}, fmt.Errorf("write settings: %w", err)
	}
	return s, nil
}
