// Package cache stores retrieved context documents and other derived
// artifacts between runs, so repeated statements do not refetch their
// enrichment sources.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the byte-level storage interface shared by the memory, disk
// and layered implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a namespaced cache key from an arbitrary identifier, such
// as a source URL or a rendered prompt. The namespace version changes
// whenever the cached payload shape does.
func Key(id string) string {
	sum := sha256.Sum256([]byte(id))
	return "formalis:v1:" + hex.EncodeToString(sum[:])
}
