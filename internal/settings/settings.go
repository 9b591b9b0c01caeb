// Package settings persists per-user reading state.
package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/nikbrunner/qbm/internal/model"
)

// values is the on-disk layout of the settings file.
type values struct {
	LastPage int `json:"lastPage"`
}

// FileSettings stores settings in a JSON file.
type FileSettings struct {
	mu   sync.Mutex
	path string
	vals values
}

// Load reads settings from path. A missing file yields defaults.
func Load(path string) (*FileSettings, error) {
	s := &FileSettings{
		path: path,
		vals: values{LastPage: model.NoPageSaved},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	// fields missing from the file keep their defaults
	if err := json.Unmarshal(data, &s.vals); err != nil {
		return nil, err
	}

	return s, nil
}

// LastPage returns the last visited page, or model.NoPageSaved.
// The value is returned as stored; range checks are up to the caller.
func (s *FileSettings) LastPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vals.LastPage
}

// SetLastPage records page and writes the file.
func (s *FileSettings) SetLastPage(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals.LastPage = page
	return s.save()
}

// ClearLastPage forgets the last visited page.
func (s *FileSettings) ClearLastPage() error {
	return s.SetLastPage(model.NoPageSaved)
}

// save writes the settings file, creating its directory if needed.
func (s *FileSettings) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.vals, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}
