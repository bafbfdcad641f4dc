// Package state persists the parameters of the last successfully applied
// filter so they can be shown again or reapplied.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

// Settings are the parameters of one applied filter.
type Settings struct {
	TimeRange  *model.TimeRange  `json:"time_range,omitempty"`
	Mode       string            `json:"mode,omitempty"`
	Zone       string            `json:"zone,omitempty"`
	Conditions []model.Condition `json:"conditions,omitempty"`
	Matched    int               `json:"matched"`
	AppliedAt  time.Time         `json:"applied_at"`
}

// stateData is the on-disk JSON structure.
type stateData struct {
	Last *Settings `json:"last,omitempty"`
}

// Store caches the last applied filter settings in a JSON file.
type Store struct {
	mu   sync.RWMutex
	path string
	data stateData
}

// Open creates or loads a state file at the given path. A missing or
// unreadable file starts an empty cache.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		_ = json.Unmarshal(raw, &s.data)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	return s, nil
}

// Last returns the most recently saved settings.
func (s *Store) Last() (Settings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Last == nil {
		return Settings{}, false
	}
	return *s.data.Last, true
}

// Set records settings as the most recent ones.
func (s *Store) Set(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Last = &settings
}

// Save writes the state to disk atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temp file first, then rename for atomicity.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
