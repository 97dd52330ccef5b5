// Package lane implements deterministic row and lane assignment for commit
// DAGs.
//
// The engine consumes a window of loaded commits and produces a [Layout]:
// one [Node] per commit with a row (rank, 0 = newest) and a lane (column),
// plus a [Edge] per parent link between loaded commits. Layout is a pure
// function of the commit set - the same commits always produce the same
// layout regardless of input order, which makes refresh idempotent and lets
// callers diff layouts across reloads.
//
// Two strategies are provided behind the [Strategy] interface: [Baseline]
// assigns one row per commit, and [Dense] additionally packs compatible
// commits onto shared rows to reduce vertical extent. Both are allocation
// -light and lay out tens of thousands of commits in well under a second.
//
// Layouts are recomputed from scratch whenever the loaded window changes:
// lane reuse and release decisions depend on global knowledge of the window,
// so appending incrementally would produce different (and unstable) lanes.
package lane

import (
	"errors"

	"github.com/gitscape/gitscape/pkg/commit"
)

var (
	// ErrMissingNode is reported by [Validate] when a commit in the input
	// window has no corresponding layout node.
	ErrMissingNode = errors.New("commit has no layout node")

	// ErrDuplicatePosition is reported by [Validate] when two nodes share the
	// same (row, lane) cell.
	ErrDuplicatePosition = errors.New("two nodes share a position")

	// ErrDanglingEdge is reported by [Validate] when an edge endpoint does not
	// reference an existing node, or its recorded row disagrees with the node.
	ErrDanglingEdge = errors.New("edge references missing or moved node")

	// ErrRowOrder is reported by [Validate] when row assignment violates the
	// strictly non-increasing timestamp invariant.
	ErrRowOrder = errors.New("rows are not in non-increasing timestamp order")

	// ErrSparseRows is reported by [Validate] in baseline mode when rows do
	// not form a dense 0..N-1 sequence.
	ErrSparseRows = errors.New("rows are not a dense 0..N-1 sequence")
)

// Node is the layout element for a single commit.
type Node struct {
	OID  string
	Row  int // rank, 0 = newest
	Lane int // column, 0 = rightmost when rendered mirrored

	// Commit is a back-reference to the underlying commit. Never nil for
	// nodes produced by the engine.
	Commit *commit.Commit

	// ChildLanes and ParentLanes hold the lanes of adjacent in-window
	// children and parents, in load order. Parents outside the loaded window
	// are absent.
	ChildLanes  []int
	ParentLanes []int
}

// IsMerge reports whether the underlying commit has multiple parents.
func (n *Node) IsMerge() bool { return n.Commit != nil && n.Commit.IsMerge() }

// Edge connects two adjacent commits in the layout. From is always the
// endpoint with the smaller row (rendered above To).
type Edge struct {
	FromOID  string
	ToOID    string
	FromRow  int
	ToRow    int
	FromLane int
	ToLane   int

	// IsMerge marks edges to a non-primary parent of a merge commit. The
	// renderer draws these as curves colored by their origin lane.
	IsMerge bool
}

// IsStraight reports whether the edge stays within one lane.
func (e Edge) IsStraight() bool { return e.FromLane == e.ToLane }

// Layout is the complete result of lane assignment.
//
// Invariants (checked by [Validate]): exactly one node per input commit, no
// two nodes share (row, lane), and rows are ordered by strictly
// non-increasing timestamp. A layout is immutable once returned.
type Layout struct {
	Nodes     map[string]*Node
	Edges     []Edge
	MaxLane   int // highest lane ever occupied
	TotalRows int
}

// Empty reports whether the layout contains no nodes.
func (l Layout) Empty() bool { return len(l.Nodes) == 0 }

// Node returns the layout node for oid, or nil and false.
func (l Layout) Node(oid string) (*Node, bool) {
	n, ok := l.Nodes[oid]
	return n, ok
}

// emptyLayout is the well-defined result for an empty input window.
func emptyLayout() Layout {
	return Layout{Nodes: map[string]*Node{}}
}
