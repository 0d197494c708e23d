// Package cache persists trained classifier parameters between runs:
// a go-cache memory layer in front of JSON files on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque byte payloads under string keys
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const modelKeyPrefix = "factbot:model:v1:"

// ModelKey derives the cache key for a training fingerprint. Fingerprints
// that are already hex digests are used as is, anything else is hashed.
func ModelKey(fingerprint string) string {
	if len(fingerprint) == sha256.Size*2 && isHex(fingerprint) {
		return modelKeyPrefix + fingerprint
	}
	hash := sha256.Sum256([]byte(fingerprint))
	return modelKeyPrefix + hex.EncodeToString(hash[:])
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}
