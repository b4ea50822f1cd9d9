// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides durable session persistence for cipher-studio.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// sessionsFile holds the JSON-serialized session collection.
	sessionsFile = "sessions.json"

	// credentialFile holds the raw API key string.
	credentialFile = "credential"

	// DefaultDebounce coalesces rapid successive persists into one write.
	// Streaming fires a persist per mutation; without coalescing that is
	// one disk write per chunk.
	DefaultDebounce = 250 * time.Millisecond
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store owns the ordered session collection and the current-session
// pointer, persisting the whole collection on every mutation.
//
// Persistence is last-write-wins over the entire collection: there is no
// merge with externally modified state and no partial-write guarantee
// beyond the atomicity of a single file rename.
type Store struct {
	mu sync.Mutex

	// BaseDir is the directory backing the key-value boundary.
	// Default: ~/.cipherstudio/
	BaseDir string

	sessions  []*model.Session
	currentID string

	// defaultConfig, when set, seeds the model configuration of sessions
	// created from here on. Nil falls back to model.DefaultModelConfig.
	defaultConfig *model.ModelConfig

	// Debounced write state
	debounce time.Duration
	timer    *time.Timer
	dirty    bool
}

// SetDefaultConfig sets the model configuration new sessions start with.
// Existing sessions keep theirs.
func (s *Store) SetDefaultConfig(cfg model.ModelConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultConfig = &cfg
}

// newSessionLocked creates a session carrying the configured defaults.
// Caller holds s.mu.
func (s *Store) newSessionLocked() *model.Session {
	sess := model.NewSession()
	if s.defaultConfig != nil {
		sess.Config = *s.defaultConfig
	}
	return sess
}

// New creates a store rooted at the default data directory.
func New() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewWithDir(filepath.Join(homeDir, ".cipherstudio"))
}

// NewWithDir creates a store rooted at a custom directory.
func NewWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	return &Store{
		BaseDir:  baseDir,
		debounce: DefaultDebounce,
	}, nil
}

// =============================================================================
// LOAD
// =============================================================================

// LoadAll reads the persisted session collection. Malformed or missing
// data is treated as "no sessions found" and never surfaces as an error:
// a corrupt store must not crash startup. When the result is empty the
// caller creates a default session via Create.
//
// The first session in the collection becomes current.
func (s *Store) LoadAll() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.currentID = ""

	data, err := os.ReadFile(filepath.Join(s.BaseDir, sessionsFile))
	if err != nil {
		return nil
	}

	var sessions []*model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil
	}

	// Drop entries that lost their identity to corruption.
	for _, sess := range sessions {
		if sess != nil && sess.ID != "" {
			s.sessions = append(s.sessions, sess)
		}
	}

	if len(s.sessions) > 0 {
		s.currentID = s.sessions[0].ID
	}
	return s.sessions
}

// =============================================================================
// COLLECTION ACCESS
// =============================================================================

// Sessions returns the ordered session collection.
func (s *Store) Sessions() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// Current returns the current session, or nil when the collection is empty.
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.currentID)
}

// SetCurrent switches the current-session pointer. Unknown IDs are ignored.
func (s *Store) SetCurrent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) != nil {
		s.currentID = id
	}
}

// Get returns the session with the given ID, or nil.
func (s *Store) Get(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Store) findLocked(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create makes a new empty session with the default configuration,
// prepends it to the collection, and makes it current.
func (s *Store) Create() *model.Session {
	s.mu.Lock()
	sess := s.newSessionLocked()
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.currentID = sess.ID
	s.mu.Unlock()

	s.Persist()
	return sess
}

// Delete removes a session. If it was current, the first remaining session
// becomes current; deleting the last session creates a fresh one, so the
// store never holds zero sessions with no current pointer.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept

	if s.currentID == id {
		if len(s.sessions) > 0 {
			s.currentID = s.sessions[0].ID
		} else {
			sess := s.newSessionLocked()
			s.sessions = []*model.Session{sess}
			s.currentID = sess.ID
		}
	}
	s.mu.Unlock()

	s.Persist()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Persist schedules a whole-collection write. Calls within the debounce
// window coalesce into a single write; use Flush to force the write out
// immediately (on shutdown, for example).
func (s *Store) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.timer = nil
		dirty := s.dirty
		s.mu.Unlock()
		if dirty {
			s.Flush()
		}
	})
}

// Flush writes the collection to disk immediately. A still-open streaming
// message is transient state and is left out of the snapshot.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = false

	snapshot := make([]*model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if open := sess.OpenMessage(); open != nil {
			closed := *sess
			closed.Messages = sess.Messages[:len(sess.Messages)-1]
			snapshot = append(snapshot, &closed)
			continue
		}
		snapshot = append(snapshot, sess)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	path := filepath.Join(s.BaseDir, sessionsFile)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// =============================================================================
// CREDENTIAL
// =============================================================================

// Credential returns the stored API key, or "" when absent or unreadable.
func (s *Store) Credential() string {
	data, err := os.ReadFile(filepath.Join(s.BaseDir, credentialFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetCredential persists the raw API key string. An empty key removes the
// stored credential.
func (s *Store) SetCredential(key string) error {
	path := filepath.Join(s.BaseDir, credentialFile)
	key = strings.TrimSpace(key)
	if key == "" {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	// SECURITY: Credential file is owner-readable only.
	return util.AtomicWriteFile(path, []byte(key), 0600)
}
