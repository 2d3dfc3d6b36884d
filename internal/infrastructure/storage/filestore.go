// Package storage persists user profiles and digest history. The primary
// gateway is a single JSON document guarded by one mutex; every write lands
// through a temp-file rename so a crash mid-write cannot corrupt the store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// DefaultHistoryCap bounds each user's digest history.
const DefaultHistoryCap = 30

// ErrUnknownUser is returned when an operation targets a user id with no
// stored profile.
var ErrUnknownUser = errors.New("unknown user")

// FileStore implements ports.ProfileStore over one JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ ports.ProfileStore = (*FileStore)(nil)

type document struct {
	Users map[string]domain.UserProfile `json:"users"`
}

// NewFileStore wires a store at the given path; the file is created lazily on
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Profile returns the stored profile for a user id.
func (s *FileStore) Profile(_ context.Context, userID string) (domain.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.UserProfile{}, false, err
	}

	profile, ok := doc.Users[userID]
	return profile, ok, nil
}

// UpsertProfile replaces the user's preference fields, preserving any
// existing digest history.
func (s *FileStore) UpsertProfile(_ context.Context, profile domain.UserProfile) error {
	if profile.UserID == "" {
		return fmt.Errorf("profile has no user id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	if existing, ok := doc.Users[profile.UserID]; ok && len(profile.History) == 0 {
		profile.History = existing.History
	}
	doc.Users[profile.UserID] = profile

	return s.save(doc)
}

// DeleteProfile removes the user's record; reports whether it existed.
func (s *FileStore) DeleteProfile(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}

	if _, ok := doc.Users[userID]; !ok {
		return false, nil
	}
	delete(doc.Users, userID)

	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// AppendHistory appends one digest entry and evicts the oldest entries beyond
// cap. Entries are kept oldest-first, newest last.
func (s *FileStore) AppendHistory(_ context.Context, userID string, entry domain.DigestEntry, cap int) error {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	profile, ok := doc.Users[userID]
	if !ok {
		return fmt.Errorf("append history for %s: %w", userID, ErrUnknownUser)
	}

	profile.History = append(profile.History, entry)
	if len(profile.History) > cap {
		profile.History = profile.History[len(profile.History)-cap:]
	}
	doc.Users[userID] = profile

	return s.save(doc)
}

// History returns up to limit most recent entries, oldest first.
func (s *FileStore) History(_ context.Context, userID string, limit int) ([]domain.DigestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	profile, ok := doc.Users[userID]
	if !ok {
		return nil, fmt.Errorf("history for %s: %w", userID, ErrUnknownUser)
	}

	history := profile.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	return append([]domain.DigestEntry(nil), history...), nil
}

// ListUserIDs returns all stored user ids in stable order.
func (s *FileStore) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(doc.Users))
	for id := range doc.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// load reads the backing file; a missing file yields an empty document.
// Callers must hold the mutex.
func (s *FileStore) load() (document, error) {
	doc := document{Users: map[string]domain.UserProfile{}}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read store: %w", err)
	}

	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse store: %w", err)
	}
	if doc.Users == nil {
		doc.Users = map[string]domain.UserProfile{}
	}

	return doc, nil
}

// save writes the document to a temp file in the same directory and renames
// it over the store path. Callers must hold the mutex.
func (s *FileStore) save(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp store: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace store: %w", err)
	}

	return nil
}
