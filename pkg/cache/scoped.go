package cache

// ScopedKeyer wraps a Keyer with a prefix so multiple repositories can share
// one cache directory without key collisions.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "repo:"+Hash([]byte(repoPath))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AvatarKey generates a prefixed key for avatar image caching.
func (k *ScopedKeyer) AvatarKey(email string) string {
	return k.prefix + k.inner.AvatarKey(email)
}

// StatsKey generates a prefixed key for commit statistics caching.
func (k *ScopedKeyer) StatsKey(repo, oid string) string {
	return k.prefix + k.inner.StatsKey(repo, oid)
}
