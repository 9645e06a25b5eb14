package store

import (
	"path/filepath"
	"sync"

	appLog "agentbook/internal/log"
	"agentbook/internal/model"
)

const settingsFile = "settings.json"

// SettingsStore persists the user settings object. Loading never fails:
// missing or corrupt data yields the defaults. Saving validates the
// reminder window first, so an invalid window (including one crossing
// midnight) is rejected instead of producing undefined gating behavior.
type SettingsStore struct {
	mu       sync.Mutex
	path     string
	settings model.Settings
}

// NewSettingsStore loads settings.json from dataDir.
func NewSettingsStore(dataDir string) *SettingsStore {
	s := &SettingsStore{
		path:     filepath.Join(dataDir, settingsFile),
		settings: model.DefaultSettings(),
	}
	var loaded model.Settings
	if err := readJSON(s.path, &loaded); err != nil {
		if !missing(err) {
			appLog.Warn("settings unreadable, using defaults", "path", s.path, "reason", err)
		}
		return s
	}
	if err := loaded.Validate(); err != nil {
		appLog.Warn("stored settings invalid, using defaults", "path", s.path, "reason", err)
		return s
	}
	s.settings = loaded
	return s
}

// Load returns the current settings.
func (s *SettingsStore) Load() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Save validates and persists new settings.
func (s *SettingsStore) Save(settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.settings
	s.settings = settings
	if err := writeJSON(s.path, s.settings); err != nil {
		s.settings = prev
		return err
	}
	return nil
}
