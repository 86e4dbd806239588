// Package store remembers the pan/zoom transform per source between runs.
// Selection is not stored; it starts empty on every run.
//
// Each source gets one JSON file under <base>/.domlens/views, named by a hash
// of the normalized source.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when no view is stored for a source.
var ErrNotFound = errors.New("store: view not found")

// StoreDir is the directory within the project for view files.
const StoreDir = ".domlens/views"

// View is the remembered state of one source.
type View struct {
	Version   int        `json:"version"`
	Source    string     `json:"source"`
	Matrix    [6]float64 `json:"matrix"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store reads and writes view files under a base directory.
type Store struct {
	mu   sync.RWMutex
	base string
}

// New returns a store rooted at base, usually the project directory.
func New(base string) *Store {
	return &Store{base: base}
}

// Dir returns the directory holding view files.
func (s *Store) Dir() string {
	return filepath.Join(s.base, StoreDir)
}

func (s *Store) path(source string) string {
	return filepath.Join(s.Dir(), HashKey(NormalizeSource(source))+".json")
}

// Get returns the view stored for source.
func (s *Store) Get(source string) (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, err := loadView(s.path(source))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

// Put stores v for v.Source, keeping the creation time of an earlier view.
func (s *Store) Put(v View) error {
	if v.Source == "" {
		return errors.New("store: source is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(v.Source)
	existing, err := loadView(path)
	if err != nil {
		return err
	}

	now := time.Now()
	v.Version = 1
	v.Source = NormalizeSource(v.Source)
	v.CreatedAt = now
	if existing != nil {
		v.CreatedAt = existing.CreatedAt
	}
	v.UpdatedAt = now
	return saveView(path, &v)
}

// Delete removes the view for source.
func (s *Store) Delete(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(source)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("store: remove view: %w", err)
	}
	return nil
}

// List returns the sources that have a stored view, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("store: read dir: %w", err)
	}

	sources := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		v, err := loadView(filepath.Join(s.Dir(), e.Name()))
		if err != nil || v == nil {
			continue
		}
		sources = append(sources, v.Source)
	}
	sort.Strings(sources)
	return sources, nil
}

// loadView returns nil with no error if the file doesn't exist.
func loadView(path string) (*View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read view: %w", err)
	}

	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("store: parse view %s: %w", filepath.Base(path), err)
	}
	return &v, nil
}

// saveView writes atomically via temp file + rename.
func saveView(path string, v *View) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal view: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: rename temp file: %w", err)
	}
	return nil
}
