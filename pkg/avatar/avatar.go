// Package avatar loads author avatar images asynchronously, keyed by email.
//
// Results are cached permanently, including failures: a miss is never
// retried, and callers fall back to initials. The loader is the only part of
// the core that touches the network besides commit fetching.
package avatar

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"strings"
	"sync"
	"unicode"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gitscape/gitscape/pkg/cache"
	"github.com/gitscape/gitscape/pkg/observability"
)

// DefaultSize is the pixel size requested from the avatar service.
const DefaultSize = 64

// URL returns the Gravatar URL for an email. The d=404 parameter makes
// unknown addresses fail fast instead of serving a generated placeholder.
func URL(email string, size int) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=404", sum, size)
}

// Initials derives up to two uppercase initials from an author name, falling
// back to the first letter of the email, then to "?".
func Initials(name, email string) string {
	fields := strings.Fields(name)
	switch {
	case len(fields) >= 2:
		return upperFirst(fields[0]) + upperFirst(fields[len(fields)-1])
	case len(fields) == 1:
		return upperFirst(fields[0])
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		return upperFirst(trimmed)
	}
	return "?"
}

func upperFirst(s string) string {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}

// Fetcher fetches a URL's body. Satisfied by [httputil.Client].
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Loader resolves emails to decoded avatar images.
//
// Image lookups are non-blocking: the first miss kicks off one background
// fetch, and the onLoad callback tells the owner to redraw once the result
// is in. All outcomes are recorded permanently - a failed email stays
// failed for the process lifetime and is also negatively cached on disk.
type Loader struct {
	fetch Fetcher
	disk  cache.Cache
	keyer cache.Keyer
	size  int

	onLoad func(email string)

	mu       sync.Mutex
	images   map[string]image.Image
	failed   map[string]struct{}
	inflight map[string]struct{}
}

// NewLoader creates a loader. disk may be nil to keep results in memory
// only; onLoad may be nil.
func NewLoader(f Fetcher, disk cache.Cache, keyer cache.Keyer, onLoad func(email string)) *Loader {
	if disk == nil {
		disk = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Loader{
		fetch:    f,
		disk:     disk,
		keyer:    keyer,
		size:     DefaultSize,
		onLoad:   onLoad,
		images:   map[string]image.Image{},
		failed:   map[string]struct{}{},
		inflight: map[string]struct{}{},
	}
}

// Image returns the avatar for email if already loaded. A first-time miss
// starts a background fetch and returns (nil, false); a known failure
// returns (nil, false) without fetching.
func (l *Loader) Image(email string) (image.Image, bool) {
	if email == "" {
		return nil, false
	}

	l.mu.Lock()
	if img, ok := l.images[email]; ok {
		l.mu.Unlock()
		return img, true
	}
	if _, bad := l.failed[email]; bad {
		l.mu.Unlock()
		return nil, false
	}
	if _, busy := l.inflight[email]; busy {
		l.mu.Unlock()
		return nil, false
	}
	l.inflight[email] = struct{}{}
	l.mu.Unlock()

	go l.load(email)
	return nil, false
}

// Known reports whether email has a settled outcome (loaded or failed).
func (l *Loader) Known(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.images[email]
	if !ok {
		_, ok = l.failed[email]
	}
	return ok
}

func (l *Loader) load(email string) {
	ctx := context.Background()
	key := l.keyer.AvatarKey(email)

	if data, hit, err := l.disk.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "avatar")
		// Empty data is a negatively cached failure.
		if len(data) == 0 {
			l.settle(email, nil)
			return
		}
		if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			l.settle(email, img)
			return
		}
		// Corrupt entry; fall through to a fresh fetch.
		_ = l.disk.Delete(ctx, key)
	} else {
		observability.Cache().OnCacheMiss(ctx, "avatar")
	}

	data, err := l.fetch.Get(ctx, URL(email, l.size))
	if err != nil {
		_ = l.disk.Set(ctx, key, nil, cache.TTLAvatar)
		l.settle(email, nil)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		_ = l.disk.Set(ctx, key, nil, cache.TTLAvatar)
		l.settle(email, nil)
		return
	}

	_ = l.disk.Set(ctx, key, data, cache.TTLAvatar)
	observability.Cache().OnCacheSet(ctx, "avatar", len(data))
	l.settle(email, img)
}

// settle records the outcome and notifies the owner. A nil image marks a
// permanent failure.
func (l *Loader) settle(email string, img image.Image) {
	l.mu.Lock()
	delete(l.inflight, email)
	if img != nil {
		l.images[email] = img
	} else {
		l.failed[email] = struct{}{}
	}
	l.mu.Unlock()

	if l.onLoad != nil {
		l.onLoad(email)
	}
}
