// Package settings persists the front-end's flat key-value settings as a
// YAML document. Keys are dotted strings ("debug.frontend"); values are
// primitives. Changes stay in memory until Commit.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Recognised keys.
const (
	KeyDebugFrontend = "debug.frontend"
	KeyDebugBackend  = "debug.backend"
)

// ErrInvalidValue is returned by Set for values that are not primitives.
var ErrInvalidValue = errors.New("settings: value must be a bool, string or number")

// Store is a mutex-guarded settings map backed by one YAML file.
// Concurrent commits are last-writer-wins.
type Store struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]interface{}
}

// New creates a store for path. Nothing is read until Read.
func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger.Named("settings"),
		values: map[string]interface{}{},
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Read loads the file, replacing in-memory values. A missing file leaves
// the store empty.
func (s *Store) Read() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.values = map[string]interface{}{}
		s.mu.Unlock()
		s.logger.Debug("No settings file yet", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("settings: read %s: %w", s.path, err)
	}

	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("settings: parse %s: %w", s.path, err)
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	s.logger.Debug("Settings loaded", zap.String("path", s.path), zap.Int("keys", len(values)))
	return nil
}

// Get returns the value for key, or def when unset.
func (s *Store) Get(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// GetBool returns key as a bool. Unset or non-bool values yield def.
func (s *Store) GetBool(key string, def bool) bool {
	if b, ok := s.Get(key, def).(bool); ok {
		return b
	}
	return def
}

// Set stores value under key in memory.
func (s *Store) Set(key string, value interface{}) error {
	switch value.(type) {
	case bool, string, int, int64, float64:
	default:
		return fmt.Errorf("%w (key %q, got %T)", ErrInvalidValue, key, value)
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Keys returns the set keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Commit writes the in-memory values to disk via a temp file and rename.
func (s *Store) Commit() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("settings: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("settings: rename temp: %w", err)
	}

	success = true
	s.logger.Debug("Settings committed", zap.String("path", s.path))
	return nil
}
