// Package commit defines the immutable commit model shared by the layout
// engine, the scroll manager, and the renderer.
//
// Commits enter the system in batches fetched from a [Source] collaborator
// and are held in a [Store] keyed by oid. The store preserves load order and
// deduplicates overlapping pagination batches by overwriting on insert, so
// re-fetching a window is always safe.
package commit

import "time"

// Commit is a single version-control commit. Instances are treated as
// immutable once loaded; the layout engine only ever reads them.
type Commit struct {
	OID         string    // unique object id
	Parents     []string  // ordered parent oids; Parents[0] is the primary lineage
	Timestamp   time.Time // committer time
	Summary     string    // first line of the message
	AuthorName  string
	AuthorEmail string
}

// IsMerge reports whether the commit has more than one parent.
func (c *Commit) IsMerge() bool { return len(c.Parents) > 1 }

// FirstParent returns Parents[0], or "" for a root commit.
func (c *Commit) FirstParent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// RefType classifies a ref attached to a commit.
type RefType int

const (
	RefLocalBranch RefType = iota
	RefRemoteBranch
	RefTag
)

// String returns a short name for the ref type, used in exports and logs.
func (t RefType) String() string {
	switch t {
	case RefLocalBranch:
		return "branch"
	case RefRemoteBranch:
		return "remote"
	case RefTag:
		return "tag"
	default:
		return "unknown"
	}
}

// RefInfo describes one ref pointing at a commit. Refs are read-only input
// attached for label rendering; they never influence layout.
type RefInfo struct {
	Name      string // full ref name, e.g. refs/heads/main
	Shorthand string // display name, e.g. main
	Type      RefType
	IsHead    bool
}

// Stats holds per-commit statistics fetched lazily in batches.
type Stats struct {
	Additions    int
	Deletions    int
	FilesChanged int
	Signed       bool
}

// Weight returns a size metric for the commit, used by the renderer to scale
// node radii. It is the total number of changed lines.
func (s Stats) Weight() int { return s.Additions + s.Deletions }
