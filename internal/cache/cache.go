// Package cache stores raw JSON response bodies keyed by request URL so
// repeated corpus runs are idempotent and mostly network-free.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Store defines the interface for response caching.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable, filesystem-safe cache key from a request URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "corpora:v1:" + hex.EncodeToString(hash[:])
}
