package lane

import (
	"fmt"

	"github.com/gitscape/gitscape/pkg/commit"
)

// Mode identifies which strategy produced a layout, for validation rules
// that only hold in one mode.
type Mode int

const (
	ModeBaseline Mode = iota
	ModeDense
)

// Validate checks a layout against the engine's invariants and returns all
// violations found. It never panics and an empty slice means the layout is
// sound. Validation is intended for debug builds and tests; it is O(N+E)
// and not run on the production path unless explicitly requested.
//
// Checked invariants:
//
//  1. Exactly one node exists per input commit, and no extra nodes.
//  2. No two nodes share a (row, lane) cell.
//  3. Edge endpoints reference existing nodes and agree with their rows,
//     with From strictly above To.
//  4. Rows are ordered by strictly non-increasing timestamp.
//  5. Baseline mode only: rows form a dense 0..N-1 sequence.
func Validate(l Layout, commits []*commit.Commit, mode Mode) []error {
	var errs []error

	loaded := make(map[string]bool, len(commits))
	for _, c := range commits {
		if c == nil || c.OID == "" {
			continue
		}
		loaded[c.OID] = true
		if _, ok := l.Nodes[c.OID]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingNode, c.OID))
		}
	}
	for oid := range l.Nodes {
		if !loaded[oid] {
			errs = append(errs, fmt.Errorf("%w: node %s has no commit", ErrMissingNode, oid))
		}
	}

	seen := make(map[cell]string, len(l.Nodes))
	for oid, n := range l.Nodes {
		pos := cell{n.Row, n.Lane}
		if other, dup := seen[pos]; dup {
			errs = append(errs, fmt.Errorf("%w: %s and %s at (%d,%d)", ErrDuplicatePosition, other, oid, n.Row, n.Lane))
		}
		seen[pos] = oid
	}

	for _, e := range l.Edges {
		from, okF := l.Nodes[e.FromOID]
		to, okT := l.Nodes[e.ToOID]
		if !okF || !okT {
			errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.FromOID, e.ToOID))
			continue
		}
		if from.Row != e.FromRow || to.Row != e.ToRow {
			errs = append(errs, fmt.Errorf("%w: %s -> %s rows (%d,%d) vs nodes (%d,%d)",
				ErrDanglingEdge, e.FromOID, e.ToOID, e.FromRow, e.ToRow, from.Row, to.Row))
		}
		if e.FromRow >= e.ToRow {
			errs = append(errs, fmt.Errorf("%w: %s -> %s has non-positive length", ErrDanglingEdge, e.FromOID, e.ToOID))
		}
	}

	errs = append(errs, validateRowOrder(l)...)

	if mode == ModeBaseline {
		rows := make(map[int]bool, len(l.Nodes))
		for _, n := range l.Nodes {
			rows[n.Row] = true
		}
		for r := 0; r < len(l.Nodes); r++ {
			if !rows[r] {
				errs = append(errs, fmt.Errorf("%w: row %d missing", ErrSparseRows, r))
			}
		}
	}

	return errs
}

// validateRowOrder checks that every node in an earlier row is at least as
// new as every node in a later row.
func validateRowOrder(l Layout) []error {
	if l.TotalRows == 0 {
		return nil
	}

	minTS := make([]int64, l.TotalRows)
	maxTS := make([]int64, l.TotalRows)
	has := make([]bool, l.TotalRows)
	for _, n := range l.Nodes {
		if n.Row < 0 || n.Row >= l.TotalRows {
			return []error{fmt.Errorf("%w: row %d outside [0,%d)", ErrRowOrder, n.Row, l.TotalRows)}
		}
		ts := n.Commit.Timestamp.UnixNano()
		if !has[n.Row] {
			minTS[n.Row], maxTS[n.Row], has[n.Row] = ts, ts, true
			continue
		}
		if ts < minTS[n.Row] {
			minTS[n.Row] = ts
		}
		if ts > maxTS[n.Row] {
			maxTS[n.Row] = ts
		}
	}

	var errs []error
	prev := int64(0)
	prevSet := false
	for r := 0; r < l.TotalRows; r++ {
		if !has[r] {
			continue
		}
		if prevSet && maxTS[r] > prev {
			errs = append(errs, fmt.Errorf("%w: row %d newer than a row above it", ErrRowOrder, r))
		}
		prev = minTS[r]
		prevSet = true
	}
	return errs
}
