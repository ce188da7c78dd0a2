package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the history file format.
const StateVersion = 1

// MaxRecent is the number of recent pairs kept.
const MaxRecent = 10

// State is the persisted history.
type State struct {
	// Version is the file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Recent lists pairs, most recent first.
	Recent []Entry `json:"recent,omitempty"`

	// DefaultDir is the folder offered first when picking files.
	DefaultDir string `json:"default_dir,omitempty"`
}

// Entry is one recently exported pair.
type Entry struct {
	Definition string    `json:"definition"`
	Firmware   string    `json:"firmware"`
	UsedAt     time.Time `json:"used_at"`
}

// Exists reports whether both files are still on disk.
func (e Entry) Exists() bool {
	return fileExists(e.Definition) && fileExists(e.Firmware)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Store manages the history file.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// DefaultPath returns <user config dir>/xdfexport/history.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "xdfexport", "history.json"), nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state. A missing file yields an empty state.
func (s *Store) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &State{Version: StateVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("history %s: %w", s.path, err)
	}
	return state, nil
}

// Save writes the state.
func (s *Store) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(state)
}

func (s *Store) save(state *State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = s.now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Clear empties the recent-files list. The default folder is kept.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	state, err := s.load()
	if err != nil {
		return err
	}
	state.Recent = nil
	return s.save(state)
}

// Add records a pair as most recent. An older entry for the same definition
// is replaced and the list is cut to MaxRecent.
func (s *Store) Add(definition, firmware string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}

	definition, firmware = absPath(definition), absPath(firmware)
	recent := make([]Entry, 0, len(state.Recent)+1)
	recent = append(recent, Entry{Definition: definition, Firmware: firmware, UsedAt: s.now()})
	for _, e := range state.Recent {
		if e.Definition != definition {
			recent = append(recent, e)
		}
	}
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	state.Recent = recent
	return s.save(state)
}

// Recent returns the pairs whose files still exist, most recent first.
// Entries with missing files are dropped from the stored list.
func (s *Store) Recent() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}

	var kept []Entry
	for _, e := range state.Recent {
		if e.Exists() {
			kept = append(kept, e)
		}
	}
	if len(kept) != len(state.Recent) {
		state.Recent = kept
		if err := s.save(state); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

// DefaultDir returns the stored default folder, or "" when none is set.
func (s *Store) DefaultDir() (string, error) {
	state, err := s.Load()
	if err != nil {
		return "", err
	}
	return state.DefaultDir, nil
}

// SetDefaultDir stores the default folder.
func (s *Store) SetDefaultDir(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state.DefaultDir = absPath(dir)
	return s.save(state)
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
