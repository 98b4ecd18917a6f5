package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps recently fetched bodies in memory so the probe phase and
// the extraction phase of a run do not hit the disk twice for one URL.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a cached body.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	if val, found := s.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a body with the given TTL.
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a cached body.
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Clear removes all cached bodies.
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}
