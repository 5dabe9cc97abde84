// Package session is the device-local identity store. The session lives in a
// single JSON file with no server-side counterpart; it is written on
// sign-up/join/sign-in and removed on explicit logout, never expiring
// otherwise.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"togethermiles-backend/internal/models"
)

const fileName = "togethermiles_session.json"

// Store persists the session under a directory.
type Store struct {
	path string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

// Load returns the saved session, or nil when none exists. Missing and
// corrupt data both read as "no session" — callers route to the entry flow,
// they never treat this as fatal.
func (s *Store) Load() (*models.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil
	}
	if sess.CoupleID == "" || sess.Nickname == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session, replacing any previous one.
func (s *Store) Save(sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session. Clearing an already-empty store is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
