// Package prefs is the small key-value preference area kept apart from the
// transactional store: session token, display name, and theme choice. It is
// an explicitly constructed, explicitly closed object that gets passed to
// whoever needs it; there is no ambient global.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Theme string

const (
	ThemeLight  Theme = "LIGHT"
	ThemeDark   Theme = "DARK"
	ThemeSystem Theme = "SYSTEM"
)

type data struct {
	SessionToken string `json:"session_token,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	Theme        Theme  `json:"theme,omitempty"`
}

// Store is a mutex-guarded JSON file. Every mutation is flushed to disk
// through a temp-file rename so a crash never leaves a torn file.
type Store struct {
	mu   sync.Mutex
	path string
	data data
}

// Open loads the preference file, creating state in memory if it does not
// exist yet. The file itself appears on the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: data{Theme: ThemeSystem}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse preferences: %w", err)
	}
	if s.data.Theme == "" {
		s.data.Theme = ThemeSystem
	}
	return s, nil
}

func (s *Store) SaveSession(token, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.SessionToken = token
	s.data.DisplayName = displayName
	return s.persist()
}

func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.SessionToken = ""
	s.data.DisplayName = ""
	return s.persist()
}

func (s *Store) SessionToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SessionToken
}

func (s *Store) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DisplayName
}

func (s *Store) SetTheme(theme Theme) error {
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Theme = theme
	return s.persist()
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Theme
}

// Close flushes current state. The store is not usable afterwards by
// convention, though nothing enforces it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// persist must be called with s.mu held.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
