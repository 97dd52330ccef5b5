package spatial

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/lane"
)

func mk(oid string, ts int64, parents ...string) *commit.Commit {
	return &commit.Commit{
		OID:       oid,
		Parents:   parents,
		Timestamp: time.Unix(ts, 0),
	}
}

func testTransform(maxLane int) Transform {
	return Transform{
		OffsetX:   20,
		OffsetY:   30,
		LaneWidth: 24,
		RowHeight: 44,
		MaxLane:   maxLane,
	}
}

func TestTransformMirrorsLanes(t *testing.T) {
	tf := testTransform(3)

	// Lane 0 is rightmost; higher lanes move left.
	x0, _ := tf.NodeCenter(0, 0)
	x3, _ := tf.NodeCenter(0, 3)
	if x0 != 20+3*24 {
		t.Errorf("lane 0 x = %v, want %v", x0, 20+3*24)
	}
	if x3 != 20 {
		t.Errorf("lane 3 x = %v, want 20", x3)
	}
	if x3 >= x0 {
		t.Error("higher lane must be left of lane 0")
	}

	_, y0 := tf.NodeCenter(0, 0)
	_, y5 := tf.NodeCenter(5, 0)
	if y0 != 30 || y5 != 30+5*44 {
		t.Errorf("rows at y=%v and y=%v, want 30 and %v", y0, y5, 30+5*44)
	}
}

func TestEdgePathStraight(t *testing.T) {
	tf := testTransform(1)
	e := lane.Edge{FromRow: 0, ToRow: 2, FromLane: 1, ToLane: 1}
	path := tf.EdgePath(e, 8)
	if len(path) != 2 {
		t.Fatalf("straight edge path has %d points, want 2", len(path))
	}
	if path[0].X != path[1].X {
		t.Error("straight edge must keep a constant x")
	}
}

func TestEdgePathCurveEndpoints(t *testing.T) {
	tf := testTransform(1)
	e := lane.Edge{FromRow: 0, ToRow: 2, FromLane: 0, ToLane: 1}
	path := tf.EdgePath(e, 10)
	if len(path) != 11 {
		t.Fatalf("curve path has %d points, want 11", len(path))
	}

	x1, y1 := tf.NodeCenter(0, 0)
	x2, y2 := tf.NodeCenter(2, 1)
	if path[0].X != x1 || path[0].Y != y1 {
		t.Errorf("curve start = %+v, want (%v, %v)", path[0], x1, y1)
	}
	last := path[len(path)-1]
	if last.X != x2 || last.Y != y2 {
		t.Errorf("curve end = %+v, want (%v, %v)", last, x2, y2)
	}
	for i := 1; i < len(path); i++ {
		if path[i].Y < path[i-1].Y {
			t.Fatal("curve must descend monotonically")
		}
	}
}

func TestHitTestEveryNodeCenter(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var commits []*commit.Commit
	prev := ""
	for i := 0; i < 60; i++ {
		oid := "node" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		if prev == "" {
			commits = append(commits, mk(oid, int64(1000-i)))
		} else if rng.Float64() < 0.3 {
			commits = append(commits, mk(oid, int64(1000-i)))
		} else {
			commits = append(commits, mk(oid, int64(1000-i), prev))
		}
		prev = oid
	}
	l := lane.Assign(commits)

	ix := New()
	ix.Configure(testTransform(l.MaxLane))
	ix.Build(l)

	for oid, n := range l.Nodes {
		x, y := ix.Transform().NodeCenter(n.Row, n.Lane)
		hit := ix.HitTest(x, y)
		if hit.Kind != KindNode || hit.OID != oid {
			t.Errorf("HitTest at center of %s = %+v, want that node", oid, hit)
		}
	}
}

func TestHitTestEdgeAndMiss(t *testing.T) {
	commits := []*commit.Commit{
		mk("top", 300, "bottom"),
		mk("bottom", 100),
	}
	l := lane.Assign(commits)

	ix := New()
	tf := testTransform(l.MaxLane)
	ix.Configure(tf)
	ix.Build(l)

	// Midpoint of the straight edge, nudged off the node centers.
	x, y1 := tf.NodeCenter(0, 0)
	_, y2 := tf.NodeCenter(1, 0)
	hit := ix.HitTest(x, (y1+y2)/2)
	if hit.Kind != KindEdge {
		t.Fatalf("HitTest on edge midpoint = %+v, want an edge", hit)
	}
	if hit.Edge.FromOID != "top" || hit.Edge.ToOID != "bottom" {
		t.Errorf("hit edge %s->%s, want top->bottom", hit.Edge.FromOID, hit.Edge.ToOID)
	}

	// Far away from everything.
	if hit := ix.HitTest(x+500, y1); hit.Kind != KindNone {
		t.Errorf("HitTest far away = %+v, want none", hit)
	}
}

func TestHitTestNodeBeatsEdge(t *testing.T) {
	commits := []*commit.Commit{
		mk("top", 300, "bottom"),
		mk("bottom", 100),
	}
	l := lane.Assign(commits)

	ix := New()
	tf := testTransform(l.MaxLane)
	ix.Configure(tf)
	ix.Build(l)

	// The node center lies on the edge path; the node must win.
	x, y := tf.NodeCenter(0, 0)
	hit := ix.HitTest(x, y)
	if hit.Kind != KindNode || hit.OID != "top" {
		t.Errorf("HitTest at node on edge = %+v, want node top", hit)
	}
}

func TestBuildVisibleCullsRows(t *testing.T) {
	commits := []*commit.Commit{
		mk("c1", 400, "c2"),
		mk("c2", 300, "c3"),
		mk("c3", 200, "c4"),
		mk("c4", 100),
	}
	l := lane.Assign(commits)

	ix := New()
	tf := testTransform(l.MaxLane)
	ix.Configure(tf)
	ix.BuildVisible(l, 0, 1)

	if x, y := tf.NodeCenter(0, 0); ix.HitTest(x, y).Kind != KindNode {
		t.Error("row 0 should be indexed")
	}
	if x, y := tf.NodeCenter(3, 0); ix.HitTest(x, y).Kind == KindNode {
		t.Error("row 3 should be culled")
	}
}

func TestCurvedEdgeHittableAlongPath(t *testing.T) {
	commits := []*commit.Commit{
		mk("a", 300),
		mk("b", 200, "a"),
		mk("c", 200, "a"),
		mk("d", 100, "b", "c"),
	}
	l := lane.Assign(commits)

	ix := New()
	tf := testTransform(l.MaxLane)
	ix.Configure(tf)
	ix.Build(l)

	var curve lane.Edge
	found := false
	for _, e := range l.Edges {
		if !e.IsStraight() && e.IsMerge {
			curve, found = e, true
			break
		}
	}
	if !found {
		t.Fatal("expected a curved merge edge in the scenario")
	}

	for _, p := range tf.EdgePath(curve, DefaultCurveSegments) {
		hit := ix.HitTest(p.X, p.Y)
		if hit.Kind == KindNone {
			t.Errorf("no hit at curve sample (%v, %v)", p.X, p.Y)
		}
	}
}
