package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskStore implements persistent disk-based response caching. Entries are
// written at most once per key in practice; concurrent source workers may
// share one directory, so Set re-checks existence before writing.
type DiskStore struct {
	dir string
	ttl time.Duration
}

// NewDiskStore creates a disk store rooted at dir.
func NewDiskStore(dir string, ttl time.Duration) *DiskStore {
	return &DiskStore{
		dir: dir,
		ttl: ttl,
	}
}

type diskEntry struct {
	Body      []byte    `json:"body"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a cached response body.
func (s *DiskStore) Get(key string) ([]byte, bool) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Body, true
}

// Set stores a response body. An existing unexpired entry is left alone so
// workers racing on a shared key never rewrite each other's files.
func (s *DiskStore) Set(key string, value []byte, ttl time.Duration) error {
	if _, ok := s.Get(key); ok {
		return nil
	}

	if ttl == 0 {
		ttl = s.ttl
	}

	entry := diskEntry{
		Body:      value,
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// Delete removes a cached entry.
func (s *DiskStore) Delete(key string) error {
	return os.Remove(s.path(key))
}

// Clear removes the whole cache directory.
func (s *DiskStore) Clear() error {
	return os.RemoveAll(s.dir)
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, key+".cache")
}
