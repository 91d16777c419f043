// Package auth implements the client-side session lifecycle: durable session
// storage, bearer token inspection, and the session manager that owns the
// in-memory session state.
package auth

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/debriefapp/debrief-cli/internal/domain"
)

// storeFileName is the single well-known key the session record lives under.
const storeFileName = "debrief_auth.json"

// Store persists the session record as one opaque JSON blob. It is the sole
// reader and writer of the durable copy. Every failure mode degrades to "no
// session": Read never errors, Write is best-effort, Clear is idempotent.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store rooted at the user config directory.
func NewStore(logger *slog.Logger) *Store {
	dir, err := os.UserConfigDir()
	if err != nil {
		// Fall back to the working directory; the session then only
		// survives as long as the process stays here.
		return NewStoreAt(storeFileName, logger)
	}
	return NewStoreAt(filepath.Join(dir, "debrief", storeFileName), logger)
}

// NewStoreAt creates a store backed by an explicit file path.
func NewStoreAt(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the stored session, or nil on a missing file, malformed JSON,
// or any other fault. Partial records (token without user, or the reverse)
// are treated as absent and removed rather than trusted.
func (s *Store) Read() *domain.Session {
	if err := validateStorePath(s.path); err != nil {
		s.logger.Warn("session store path rejected", "path", s.path, "error", err)
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read session store", "error", err)
		}
		return nil
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.logger.Warn("malformed session store, discarding", "error", err)
		s.Clear()
		return nil
	}

	if !session.Valid() {
		s.Clear()
		return nil
	}

	return &session
}

// Write persists the session. Storage failures are logged and swallowed; the
// in-memory session keeps working for the rest of the process lifetime.
func (s *Store) Write(session *domain.Session) {
	if session == nil {
		return
	}

	if err := validateStorePath(s.path); err != nil {
		s.logger.Warn("session store path rejected", "path", s.path, "error", err)
		return
	}

	data, err := json.Marshal(session)
	if err != nil {
		s.logger.Warn("failed to serialize session", "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		s.logger.Warn("failed to create session store directory", "error", err)
		return
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Warn("failed to write session store", "error", err)
	}
}

// Clear removes the stored session. Safe to call when nothing is stored.
func (s *Store) Clear() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to clear session store", "error", err)
	}
}

// validateStorePath rejects relative and traversal-shaped paths before any
// file operation touches them.
func validateStorePath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return os.ErrInvalid
	}

	if !filepath.IsAbs(cleanPath) && filepath.Dir(cleanPath) != "." {
		return os.ErrInvalid
	}

	return nil
}
