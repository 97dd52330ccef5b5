package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores entries as raw files under a two-level fan-out directory,
// so a cached avatar on disk is the image bytes themselves. Entries without
// a TTL are permanent; a TTL is recorded in a sidecar file next to the
// payload.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-backed cache rooted at dir, creating it if
// needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Get retrieves a value. An unreadable or expired entry is a miss, and
// expired entries are removed on the way out.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	if expired(path) {
		_ = os.Remove(path)
		_ = os.Remove(path + expirySuffix)
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. ttl <= 0 means the entry never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	if ttl <= 0 {
		// Overwriting a TTL'd entry with a permanent one must drop the
		// stale deadline.
		_ = os.Remove(path + expirySuffix)
		return nil
	}
	deadline := time.Now().Add(ttl).Format(time.RFC3339Nano)
	return os.WriteFile(path+expirySuffix, []byte(deadline), 0644)
}

// Delete removes a value. Deleting an absent key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	path := c.path(key)
	_ = os.Remove(path + expirySuffix)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file cache.
func (c *FileCache) Close() error { return nil }

// expirySuffix marks the sidecar file holding an entry's deadline.
const expirySuffix = ".expires"

// expired reports whether the entry at path carries a deadline in the past.
// A missing or unparsable sidecar means the entry is permanent.
func expired(path string) bool {
	raw, err := os.ReadFile(path + expirySuffix)
	if err != nil {
		return false
	}
	deadline, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return false
	}
	return time.Now().After(deadline)
}

// path fans keys out over hashed subdirectories so one directory never
// accumulates every entry.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:])
}

var _ Cache = (*FileCache)(nil)
