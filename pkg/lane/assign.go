package lane

import (
	"slices"
	"strings"

	"github.com/gitscape/gitscape/pkg/commit"
)

// Strategy is a selectable lane assignment algorithm. Strategies must be
// pure and deterministic: no error returns, no panics, empty input yields an
// empty layout.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Assign computes a layout for the given commit window.
	Assign(commits []*commit.Commit) Layout
}

// Baseline assigns exactly one row per commit, newest first. This is the
// default strategy and the only one whose rows are guaranteed to form a
// dense 0..N-1 sequence.
type Baseline struct{}

func (Baseline) Name() string { return "baseline" }

func (Baseline) Assign(commits []*commit.Commit) Layout {
	return newAssigner(commits, false).run()
}

// Dense additionally packs commits with equal timestamps onto shared rows
// when doing so introduces no position conflict, no zero-length edge, and no
// edge crossing through an occupied cell. It trades a small per-commit
// search for reduced vertical extent.
type Dense struct{}

func (Dense) Name() string { return "dense" }

func (Dense) Assign(commits []*commit.Commit) Layout {
	return newAssigner(commits, true).run()
}

// Assign runs the baseline strategy. Shorthand for Baseline{}.Assign.
func Assign(commits []*commit.Commit) Layout {
	return Baseline{}.Assign(commits)
}

// sortCommits returns the window sorted newest-first. Timestamp ties are
// broken by descending oid so the result is a pure function of the commit
// set, independent of load order.
func sortCommits(commits []*commit.Commit) []*commit.Commit {
	sorted := make([]*commit.Commit, 0, len(commits))
	for _, c := range commits {
		if c != nil && c.OID != "" {
			sorted = append(sorted, c)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *commit.Commit) int {
		if !a.Timestamp.Equal(b.Timestamp) {
			if a.Timestamp.After(b.Timestamp) {
				return -1
			}
			return 1
		}
		return strings.Compare(b.OID, a.OID)
	})
	return sorted
}

// link is one parent relationship between two in-window commits, indexed by
// processing position. child is the index of the endpoint whose Parents list
// names the other; first marks links through Parents[0] (the primary
// lineage, eligible for lane continuation).
type link struct {
	peer  int
	child int
	first bool
}

type cell struct{ row, lane int }

type assigner struct {
	commits []*commit.Commit
	index   map[string]int
	adj     [][]link
	pending []int // per commit: links to later-placed commits

	lanes   []string // lane -> occupying oid, "" when free
	nodes   []*Node  // by processing index
	edges   []Edge
	maxLane int

	dense    bool
	maxRow   int
	occupied map[cell]bool
	rowTime  []int64 // per row: timestamp shared by its nodes (dense mode)
}

func newAssigner(commits []*commit.Commit, dense bool) *assigner {
	sorted := sortCommits(commits)

	a := &assigner{
		commits: sorted,
		index:   make(map[string]int, len(sorted)),
		adj:     make([][]link, len(sorted)),
		pending: make([]int, len(sorted)),
		nodes:   make([]*Node, len(sorted)),
		dense:   dense,
		maxRow:  -1,
	}
	if dense {
		a.occupied = make(map[cell]bool, len(sorted))
	}
	for i, c := range sorted {
		a.index[c.OID] = i
	}

	// Links exist only between commits that are both loaded. The earlier
	// endpoint of each link accumulates a pending count: its lane can only be
	// released once every later endpoint has been placed.
	for i, c := range sorted {
		for pi, parent := range c.Parents {
			j, ok := a.index[parent]
			if !ok || j == i {
				continue
			}
			l := link{child: i, first: pi == 0}
			a.adj[i] = append(a.adj[i], link{peer: j, child: l.child, first: l.first})
			a.adj[j] = append(a.adj[j], link{peer: i, child: l.child, first: l.first})
			a.pending[min(i, j)]++
		}
	}
	return a
}

func (a *assigner) run() Layout {
	if len(a.commits) == 0 {
		return emptyLayout()
	}

	for i := range a.commits {
		a.place(i)
	}
	a.fillAdjacentLanes()

	nodes := make(map[string]*Node, len(a.nodes))
	for _, n := range a.nodes {
		nodes[n.OID] = n
	}
	return Layout{
		Nodes:     nodes,
		Edges:     a.edges,
		MaxLane:   a.maxLane,
		TotalRows: a.maxRow + 1,
	}
}

func (a *assigner) place(i int) {
	c := a.commits[i]
	lane := a.pickLane(i)

	row := i
	if a.dense {
		row = a.pickRow(i, lane)
	}
	if row > a.maxRow {
		a.maxRow = row
	}
	if a.dense {
		a.occupied[cell{row, lane}] = true
		if row == len(a.rowTime) {
			a.rowTime = append(a.rowTime, c.Timestamp.UnixNano())
		}
	}

	n := &Node{OID: c.OID, Row: row, Lane: lane, Commit: c}
	a.nodes[i] = n
	a.lanes[lane] = c.OID
	if lane > a.maxLane {
		a.maxLane = lane
	}

	// Connect to every already-placed neighbor, then release lanes whose
	// lines terminate here.
	for _, l := range a.adj[i] {
		if l.peer > i {
			continue
		}
		p := a.nodes[l.peer]
		childCommit := a.commits[l.child]
		a.edges = append(a.edges, Edge{
			FromOID:  p.OID,
			ToOID:    n.OID,
			FromRow:  p.Row,
			ToRow:    n.Row,
			FromLane: p.Lane,
			ToLane:   n.Lane,
			IsMerge:  len(childCommit.Parents) > 1 && !l.first,
		})

		a.pending[l.peer]--
		if a.pending[l.peer] == 0 && a.lanes[p.Lane] == p.OID && p.Lane != lane {
			a.lanes[p.Lane] = ""
		}
	}

	// A commit with no parent in the loaded window is a boundary root: no
	// future line continues through it, so its lane is returned immediately.
	if !a.hasLoadedParent(c) && a.lanes[lane] == c.OID {
		a.lanes[lane] = ""
	}
}

// pickLane returns the lane for commit i: a continuation of an adjacent
// first-parent line when one is still open, otherwise the leftmost free
// lane, growing the lane set if none is free.
func (a *assigner) pickLane(i int) int {
	inherit := -1
	for _, l := range a.adj[i] {
		if l.peer > i || !l.first {
			continue
		}
		p := a.nodes[l.peer]
		// Only an unconsumed line can be continued; a freed or already
		// inherited lane no longer carries the neighbor's oid.
		if a.lanes[p.Lane] != p.OID {
			continue
		}
		if inherit == -1 || p.Lane < inherit {
			inherit = p.Lane
		}
	}
	if inherit >= 0 {
		return inherit
	}

	for lane, oid := range a.lanes {
		if oid == "" {
			return lane
		}
	}
	a.lanes = append(a.lanes, "")
	return len(a.lanes) - 1
}

// pickRow searches for the topmost compatible shared row (dense mode). A row
// can be shared only when its timestamp matches exactly, the target cell is
// free, every produced edge keeps a positive length, and no edge corridor
// passes through an occupied cell.
func (a *assigner) pickRow(i, lane int) int {
	ts := a.commits[i].Timestamp.UnixNano()

	minRow := 0
	for _, l := range a.adj[i] {
		if l.peer > i {
			continue
		}
		if r := a.nodes[l.peer].Row + 1; r > minRow {
			minRow = r
		}
	}

	for r := minRow; r <= a.maxRow; r++ {
		if a.rowTime[r] != ts || a.occupied[cell{r, lane}] {
			continue
		}
		if a.corridorClear(i, r, lane) {
			return r
		}
	}
	return a.maxRow + 1
}

// corridorClear reports whether every edge elbow into (r, lane) stays clear
// of occupied cells on row r.
func (a *assigner) corridorClear(i, r, lane int) bool {
	for _, l := range a.adj[i] {
		if l.peer > i {
			continue
		}
		p := a.nodes[l.peer]
		lo, hi := min(p.Lane, lane), max(p.Lane, lane)
		for x := lo; x <= hi; x++ {
			if x == lane {
				continue
			}
			if a.occupied[cell{r, x}] {
				return false
			}
		}
	}
	return true
}

func (a *assigner) hasLoadedParent(c *commit.Commit) bool {
	for _, p := range c.Parents {
		if _, ok := a.index[p]; ok {
			return true
		}
	}
	return false
}

// fillAdjacentLanes populates ChildLanes and ParentLanes in a second pass,
// once every lane is final. Parents outside the window are skipped.
func (a *assigner) fillAdjacentLanes() {
	for i, c := range a.commits {
		n := a.nodes[i]
		for _, parent := range c.Parents {
			j, ok := a.index[parent]
			if !ok {
				continue
			}
			pn := a.nodes[j]
			n.ParentLanes = append(n.ParentLanes, pn.Lane)
			pn.ChildLanes = append(pn.ChildLanes, n.Lane)
		}
	}
}
