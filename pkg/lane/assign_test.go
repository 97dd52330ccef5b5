package lane

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gitscape/gitscape/pkg/commit"
)

func mk(oid string, ts int64, parents ...string) *commit.Commit {
	return &commit.Commit{
		OID:       oid,
		Parents:   parents,
		Timestamp: time.Unix(ts, 0),
		Summary:   "commit " + oid,
	}
}

func TestAssignEmpty(t *testing.T) {
	l := Assign(nil)
	if !l.Empty() {
		t.Fatal("expected empty layout")
	}
	if l.TotalRows != 0 || len(l.Edges) != 0 {
		t.Errorf("TotalRows = %d, edges = %d, want 0, 0", l.TotalRows, len(l.Edges))
	}

	l = Assign([]*commit.Commit{nil, {OID: ""}})
	if !l.Empty() {
		t.Error("nil and id-less commits should be skipped")
	}
}

func TestAssignLinearChain(t *testing.T) {
	commits := []*commit.Commit{
		mk("c3", 300, "c2"),
		mk("c2", 200, "c1"),
		mk("c1", 100),
	}
	l := Assign(commits)

	for i, oid := range []string{"c3", "c2", "c1"} {
		n, ok := l.Node(oid)
		if !ok {
			t.Fatalf("missing node %s", oid)
		}
		if n.Row != i || n.Lane != 0 {
			t.Errorf("%s at (%d,%d), want (%d,0)", oid, n.Row, n.Lane, i)
		}
	}
	if l.MaxLane != 0 {
		t.Errorf("MaxLane = %d, want 0", l.MaxLane)
	}
	if len(l.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(l.Edges))
	}
	for _, e := range l.Edges {
		if !e.IsStraight() || e.IsMerge {
			t.Errorf("edge %s->%s should be a straight non-merge line", e.FromOID, e.ToOID)
		}
	}
	if errs := Validate(l, commits, ModeBaseline); len(errs) != 0 {
		t.Errorf("Validate: %v", errs)
	}
}

// The branch/merge scenario: A(t=300), B and C at t=200 both tied to A, and
// merge commit D(t=100) with parents [B, C]. D must continue its first
// parent's lane, the second-parent edge must change lanes, and only two
// lanes may ever be used.
func TestAssignBranchMergeScenario(t *testing.T) {
	commits := []*commit.Commit{
		mk("a", 300),
		mk("b", 200, "a"),
		mk("c", 200, "a"),
		mk("d", 100, "b", "c"),
	}
	l := Assign(commits)

	rows := map[string]int{}
	for oid, n := range l.Nodes {
		rows[oid] = n.Row
	}
	if rows["a"] != 0 {
		t.Errorf("a at row %d, want 0", rows["a"])
	}
	// Timestamp tie at t=200 is broken by descending oid: c before b.
	if rows["c"] != 1 || rows["b"] != 2 {
		t.Errorf("tie-break rows c=%d b=%d, want 1, 2", rows["c"], rows["b"])
	}
	if rows["d"] != 3 {
		t.Errorf("d at row %d, want 3", rows["d"])
	}

	b, _ := l.Node("b")
	d, _ := l.Node("d")
	if d.Lane != b.Lane {
		t.Errorf("d.Lane = %d, want first parent's lane %d", d.Lane, b.Lane)
	}
	if !d.IsMerge() {
		t.Error("d should be a merge node")
	}
	if l.MaxLane != 1 {
		t.Errorf("MaxLane = %d, want 1", l.MaxLane)
	}

	var straight, curved int
	for _, e := range l.Edges {
		if e.ToOID != "d" {
			continue
		}
		if e.IsStraight() {
			straight++
			if e.IsMerge {
				t.Error("first-parent edge b->d must not be a merge edge")
			}
		} else {
			curved++
			if !e.IsMerge {
				t.Error("second-parent edge c->d must be a merge edge")
			}
		}
	}
	if straight != 1 || curved != 1 {
		t.Errorf("edges into d: %d straight, %d curved, want 1 and 1", straight, curved)
	}

	if errs := Validate(l, commits, ModeBaseline); len(errs) != 0 {
		t.Errorf("Validate: %v", errs)
	}
}

// A boundary root frees its lane, and the commit that reuses the freed lane
// must start a fresh line rather than continue the stale one.
func TestLaneReleaseReuse(t *testing.T) {
	commits := []*commit.Commit{
		mk("x", 500, "outside-window"),
		mk("y", 400, "z"),
		mk("z", 300),
	}
	l := Assign(commits)

	x, _ := l.Node("x")
	y, _ := l.Node("y")
	if x.Lane != 0 {
		t.Fatalf("x.Lane = %d, want 0", x.Lane)
	}
	if y.Lane != 0 {
		t.Errorf("y.Lane = %d, want reused lane 0", y.Lane)
	}
	for _, e := range l.Edges {
		if e.FromOID == "x" || e.ToOID == "x" {
			t.Errorf("no edge may touch boundary root x, got %s->%s", e.FromOID, e.ToOID)
		}
	}
	if len(l.Edges) != 1 {
		t.Fatalf("edges = %d, want 1 (y->z)", len(l.Edges))
	}
	if errs := Validate(l, commits, ModeBaseline); len(errs) != 0 {
		t.Errorf("Validate: %v", errs)
	}
}

// Layout must be a pure function of the commit set: shuffling the input
// produces identical row/lane assignments per oid.
func TestAssignOrderIndependent(t *testing.T) {
	commits := randomDAG(rand.New(rand.NewSource(7)), 200, 4)
	want := Assign(commits)

	shuffled := make([]*commit.Commit, len(commits))
	copy(shuffled, commits)
	rand.New(rand.NewSource(8)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	got := Assign(shuffled)

	if len(got.Nodes) != len(want.Nodes) {
		t.Fatalf("node count %d != %d", len(got.Nodes), len(want.Nodes))
	}
	for oid, wn := range want.Nodes {
		gn, ok := got.Node(oid)
		if !ok {
			t.Fatalf("missing node %s", oid)
		}
		if gn.Row != wn.Row || gn.Lane != wn.Lane {
			t.Errorf("%s at (%d,%d), want (%d,%d)", oid, gn.Row, gn.Lane, wn.Row, wn.Lane)
		}
	}
	if len(got.Edges) != len(want.Edges) {
		t.Errorf("edge count %d != %d", len(got.Edges), len(want.Edges))
	}
}

// With at most K branches alive at any point, the number of lanes must stay
// bounded well below 2K regardless of DAG shape.
func TestMaxLaneBounded(t *testing.T) {
	const k = 4
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		commits := randomDAG(rng, 400, k)

		l := Assign(commits)
		if l.MaxLane >= 2*k {
			t.Errorf("seed %d: MaxLane = %d, want < %d", seed, l.MaxLane, 2*k)
		}
		if errs := Validate(l, commits, ModeBaseline); len(errs) != 0 {
			t.Errorf("seed %d: Validate: %v", seed, errs)
		}
	}
}

func TestDenseSharesRows(t *testing.T) {
	commits := []*commit.Commit{
		mk("q", 200, "r"),
		mk("p", 200, "r"),
		mk("r", 100),
	}
	l := Dense{}.Assign(commits)

	p, _ := l.Node("p")
	q, _ := l.Node("q")
	r, _ := l.Node("r")
	if p.Row != q.Row {
		t.Errorf("p.Row = %d, q.Row = %d, want shared row", p.Row, q.Row)
	}
	if p.Lane == q.Lane {
		t.Error("row-sharing nodes must occupy different lanes")
	}
	if r.Row != p.Row+1 {
		t.Errorf("r.Row = %d, want %d (no zero-length edges)", r.Row, p.Row+1)
	}
	if l.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", l.TotalRows)
	}
	if errs := Validate(l, commits, ModeDense); len(errs) != 0 {
		t.Errorf("Validate: %v", errs)
	}
}

func TestDenseInvariantsRandomized(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		commits := randomDAG(rng, 300, 5)
		// Collapse timestamps into coarse buckets to force shared rows.
		for _, c := range commits {
			c.Timestamp = time.Unix(c.Timestamp.Unix()/4*4, 0)
		}

		l := Dense{}.Assign(commits)
		if errs := Validate(l, commits, ModeDense); len(errs) != 0 {
			t.Errorf("seed %d: Validate: %v", seed, errs)
		}
		base := Assign(commits)
		if l.TotalRows > base.TotalRows {
			t.Errorf("seed %d: dense rows %d exceed baseline %d", seed, l.TotalRows, base.TotalRows)
		}
	}
}

func TestAdjacentLanesFilled(t *testing.T) {
	commits := []*commit.Commit{
		mk("a", 300),
		mk("b", 200, "a"),
		mk("c", 200, "a"),
		mk("d", 100, "b", "c"),
	}
	l := Assign(commits)

	d, _ := l.Node("d")
	if len(d.ParentLanes) != 2 {
		t.Fatalf("d.ParentLanes = %v, want 2 entries", d.ParentLanes)
	}
	a, _ := l.Node("a")
	if len(a.ChildLanes) != 2 {
		t.Fatalf("a.ChildLanes = %v, want 2 entries", a.ChildLanes)
	}

	// A parent outside the window contributes no lane.
	boundary := []*commit.Commit{mk("x", 100, "gone")}
	bl := Assign(boundary)
	x, _ := bl.Node("x")
	if len(x.ParentLanes) != 0 {
		t.Errorf("x.ParentLanes = %v, want empty", x.ParentLanes)
	}
}

// randomDAG generates a plausible commit history, oldest first internally,
// with at most maxBranches concurrently open branch tips. Returned commits
// are newest-first with strictly descending timestamps per creation step.
func randomDAG(rng *rand.Rand, n, maxBranches int) []*commit.Commit {
	var commits []*commit.Commit
	var tips []string
	ts := int64(1000)
	next := 0

	newOID := func() string {
		next++
		return "oid" + itoa(next)
	}

	for len(commits) < n {
		ts++
		switch {
		case len(tips) == 0:
			oid := newOID()
			commits = append(commits, mk(oid, ts))
			tips = append(tips, oid)
		case len(tips) >= 2 && rng.Float64() < 0.2:
			// Merge two tips.
			i, j := rng.Intn(len(tips)), rng.Intn(len(tips))
			for j == i {
				j = rng.Intn(len(tips))
			}
			oid := newOID()
			commits = append(commits, mk(oid, ts, tips[i], tips[j]))
			hi, lo := max(i, j), min(i, j)
			tips = append(tips[:hi], tips[hi+1:]...)
			tips = append(tips[:lo], tips[lo+1:]...)
			tips = append(tips, oid)
		case len(tips) < maxBranches && rng.Float64() < 0.3:
			// Branch off a random tip; the tip stays open.
			oid := newOID()
			commits = append(commits, mk(oid, ts, tips[rng.Intn(len(tips))]))
			tips = append(tips, oid)
		default:
			// Extend a random tip.
			i := rng.Intn(len(tips))
			oid := newOID()
			commits = append(commits, mk(oid, ts, tips[i]))
			tips[i] = oid
		}
	}

	// Newest first, as a Source would deliver them.
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
