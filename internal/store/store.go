// Package store persists the session-to-document association so an attached
// document survives client restarts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DocumentStore is the injected key-value collaborator: document id by
// session id.
type DocumentStore interface {
	Get(sessionID string) (string, bool)
	Set(sessionID, documentID string) error
}

// FileStore keeps the mapping in a single JSON file.
type FileStore struct {
	path string

	mu sync.Mutex
	m  map[string]string
}

// OpenFile loads the mapping from path, creating parent directories as
// needed. A missing file yields an empty store.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, m: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.m); err != nil {
			return nil, fmt.Errorf("store: parse %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Get(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[sessionID]
	return v, ok
}

func (s *FileStore) Set(sessionID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sessionID] = documentID
	data, err := json.MarshalIndent(s.m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}
