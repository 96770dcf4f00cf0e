// Package session persists the signed-in marker and display preferences
// across restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	sessionFile     = "session.json"
	preferencesFile = "preferences.json"
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Session is the durable authentication marker.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Token         string `json:"token,omitempty"`
	UserID        string `json:"userId,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Preferences are the user's display choices.
type Preferences struct {
	Unit  weather.Unit `json:"unit" validate:"oneof=C F"`
	Theme Theme        `json:"theme" validate:"oneof=light dark"`
}

// DefaultPreferences is what a fresh install shows.
func DefaultPreferences() Preferences {
	return Preferences{Unit: weather.Celsius, Theme: ThemeLight}
}

// Store persists the session and preferences.
type Store interface {
	LoadSession() (Session, error)
	SaveSession(Session) error
	ClearSession() error
	LoadPreferences() (Preferences, error)
	SavePreferences(Preferences) error
}

// FileStore keeps one JSON document per concern in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) LoadSession() (Session, error) {
	var sess Session
	if _, err := s.read(sessionFile, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *FileStore) SaveSession(sess Session) error {
	return s.write(sessionFile, sess)
}

func (s *FileStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *FileStore) LoadPreferences() (Preferences, error) {
	prefs := DefaultPreferences()
	if _, err := s.read(preferencesFile, &prefs); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

func (s *FileStore) SavePreferences(p Preferences) error {
	return s.write(preferencesFile, p)
}

func (s *FileStore) read(name string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (s *FileStore) write(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu    sync.RWMutex
	sess  Session
	prefs Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: DefaultPreferences()}
}

func (m *MemoryStore) LoadSession() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess, nil
}

func (m *MemoryStore) SaveSession(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s
	return nil
}

func (m *MemoryStore) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{}
	return nil
}

func (m *MemoryStore) LoadPreferences() (Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs, nil
}

func (m *MemoryStore) SavePreferences(p Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = p
	return nil
}
