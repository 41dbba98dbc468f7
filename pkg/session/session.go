// Package session persists the bearer token and profile of the logged-in user.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/pkg/paths"
	"gopkg.in/yaml.v3"
)

// data is the on-disk session file.
type data struct {
	Token   string         `yaml:"token"`
	Profile models.Profile `yaml:"profile"`
	SavedAt time.Time      `yaml:"saved_at"`
}

// Session is a file-backed token store. It implements gateway.TokenSource.
type Session struct {
	path string

	mu   sync.RWMutex
	data data
}

// Open loads the session stored at path. A missing file is an empty session.
func Open(path string) (*Session, error) {
	s := &Session{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDefault loads the session from the user's state directory.
func OpenDefault() (*Session, error) {
	return Open(paths.SessionPath())
}

// Path returns the session file location.
func (s *Session) Path() string {
	return s.path
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

// Profile returns the logged-in user.
func (s *Session) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Profile
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Reload re-reads the session file.
func (s *Session) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.set(data{})
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}

	var d data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("parse session file: %w", err)
	}
	s.set(d)
	return nil
}

// Save stores profile and its token.
func (s *Session) Save(profile models.Profile) error {
	if profile.Token == "" {
		return fmt.Errorf("profile has no token")
	}
	d := data{Token: profile.Token, Profile: profile, SavedAt: time.Now().UTC()}
	d.Profile.Token = ""

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	raw, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	s.set(d)
	return nil
}

// Clear forgets the token and removes the session file.
func (s *Session) Clear() error {
	s.set(data{})
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Session) set(d data) {
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
}
