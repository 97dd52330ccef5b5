// Package cache provides a byte-level cache with pluggable backends.
//
// The [Cache] interface is deliberately small: Get/Set/Delete/Close over
// opaque byte slices. A [Keyer] builds namespaced keys for the things
// gitscape caches - avatar images and per-commit statistics - so backends
// never see raw emails or repository paths as keys.
package cache

import (
	"context"
	"time"
)

// TTLs per cached data kind. Avatar entries never expire: a miss (including
// a failed fetch) is cached permanently and only an explicit Delete clears
// it. Stats are invalidated when the repository changes, so a generous TTL
// only guards against unbounded growth.
const (
	TTLAvatar = 0
	TTLStats  = 30 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; an absent key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for the data kinds gitscape stores.
type Keyer interface {
	// AvatarKey is the key for an author's avatar image bytes.
	AvatarKey(email string) string

	// StatsKey is the key for a commit's change statistics.
	StatsKey(repo, oid string) string
}

// DefaultKeyer hashes key components, so emails and repository paths never
// appear verbatim in backend storage.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) AvatarKey(email string) string {
	return hashKey("avatar", email)
}

func (DefaultKeyer) StatsKey(repo, oid string) string {
	return hashKey("stats", repo, oid)
}
