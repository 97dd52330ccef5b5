package scroll

import (
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

func testGeometry() Geometry {
	return Geometry{LaneWidth: 24, RowHeight: 44, OffsetX: 20, OffsetY: 30}
}

// chain builds a linear history of n commits, newest first.
func chain(n int) []*commit.Commit {
	commits := make([]*commit.Commit, 0, n)
	for i := 0; i < n; i++ {
		oid := "c" + itoa(n-i)
		if i == n-1 {
			commits = append(commits, mk(oid, int64(1000+n-i)))
		} else {
			commits = append(commits, mk(oid, int64(1000+n-i), "c"+itoa(n-i-1)))
		}
	}
	return commits
}

func TestContentSize(t *testing.T) {
	m := NewManager(testGeometry())
	if s := m.ContentSize(); s.Width != 0 || s.Height != 0 {
		t.Errorf("empty content size = %+v, want zero", s)
	}

	m.SetLayout(lane.Assign(chain(100)))
	s := m.ContentSize()
	wantW := 2*20.0 + 1*24.0
	wantH := 2*30.0 + 100*44.0
	if s.Width != wantW || s.Height != wantH {
		t.Errorf("content size = %+v, want (%v, %v)", s, wantW, wantH)
	}
}

func TestVisibleRangeClampedSubset(t *testing.T) {
	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(chain(1000)))

	tests := []struct {
		name string
		vp   Viewport
	}{
		{"top", Viewport{ScrollTop: 0, Width: 800, Height: 600}},
		{"middle", Viewport{ScrollTop: 20000, Width: 800, Height: 600}},
		{"past the end", Viewport{ScrollTop: 1e9, Width: 800, Height: 600}},
		{"negative", Viewport{ScrollTop: -500, Width: 800, Height: 600}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := m.VisibleRange(tt.vp)
			if r.StartRow < 0 || r.EndRow > 999 || r.StartRow > r.EndRow {
				t.Errorf("row range [%d,%d] outside [0,999]", r.StartRow, r.EndRow)
			}
			if r.StartLane < 0 || r.EndLane > m.Layout().MaxLane || r.StartLane > r.EndLane {
				t.Errorf("lane range [%d,%d] outside [0,%d]", r.StartLane, r.EndLane, m.Layout().MaxLane)
			}
		})
	}
}

func TestVisibleRangeExpandsWithOverscan(t *testing.T) {
	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(chain(1000)))

	vp := Viewport{ScrollTop: 10000, Width: 800, Height: 600}
	r := m.VisibleRange(vp)

	strictStart := int((vp.ScrollTop - 30) / 44)
	strictEnd := int((vp.ScrollTop + vp.Height - 30) / 44)
	if r.StartRow > strictStart || r.EndRow < strictEnd {
		t.Errorf("range [%d,%d] does not cover strict viewport rows [%d,%d]",
			r.StartRow, r.EndRow, strictStart, strictEnd)
	}
	if r.StartRow == strictStart || r.EndRow == strictEnd {
		t.Error("overscan should extend beyond the strict viewport")
	}
}

func TestRenderDataCullsToVisibleRows(t *testing.T) {
	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(chain(1000)))

	vp := Viewport{ScrollTop: 10000, Width: 800, Height: 600}
	rd := m.RenderData(vp)
	r := rd.Range

	if len(rd.Nodes) == 0 {
		t.Fatal("expected visible nodes")
	}
	if len(rd.Nodes) == 1000 {
		t.Fatal("render data must not include the full graph")
	}
	for _, n := range rd.Nodes {
		if n.Row < r.StartRow || n.Row > r.EndRow {
			t.Errorf("node %s at row %d outside visible [%d,%d]", n.OID, n.Row, r.StartRow, r.EndRow)
		}
	}
	for _, e := range rd.Edges {
		if e.ToRow < r.StartRow || e.FromRow > r.EndRow {
			t.Errorf("edge %s->%s does not intersect visible rows", e.FromOID, e.ToOID)
		}
	}
	if rd.OffsetY != -vp.ScrollTop {
		t.Errorf("OffsetY = %v, want %v", rd.OffsetY, -vp.ScrollTop)
	}
}

func TestRenderDataCarriesAnnotations(t *testing.T) {
	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(chain(3)))
	m.SetAnnotations(
		map[string][]commit.RefInfo{"c3": {{Name: "refs/heads/main", Shorthand: "main", Type: commit.RefLocalBranch, IsHead: true}}},
		map[string]commit.Stats{"c2": {Additions: 5, Deletions: 1, FilesChanged: 2}},
	)

	rd := m.RenderData(Viewport{Width: 800, Height: 600})
	if len(rd.Refs["c3"]) != 1 || rd.Refs["c3"][0].Shorthand != "main" {
		t.Errorf("Refs[c3] = %+v, want main", rd.Refs["c3"])
	}
	if rd.Stats["c2"].Additions != 5 {
		t.Errorf("Stats[c2] = %+v, want additions 5", rd.Stats["c2"])
	}
}

func TestLongEdgeVisibleMidSpan(t *testing.T) {
	// A merge whose second parent is hundreds of rows down produces an edge
	// spanning many buckets; it must be returned when only the middle of the
	// span is on screen.
	commits := chain(400)
	commits = append([]*commit.Commit{mk("merge", 2000, "c400", "c1")}, commits...)

	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(commits))

	vp := Viewport{ScrollTop: 200 * 44, Width: 800, Height: 600}
	rd := m.RenderData(vp)

	found := false
	for _, e := range rd.Edges {
		if e.FromOID == "merge" && e.ToOID == "c1" {
			found = true
		}
	}
	if !found {
		t.Error("long merge edge missing from mid-span render data")
	}
}

func TestNearEnd(t *testing.T) {
	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(chain(100)))
	h := m.ContentSize().Height

	if m.NearEnd(Viewport{ScrollTop: 0, Height: 600}) {
		t.Error("top of a long graph is not near the end")
	}
	if !m.NearEnd(Viewport{ScrollTop: h - 600 - 100, Height: 600}) {
		t.Error("within threshold of the bottom should report near end")
	}
	if (&Manager{geo: testGeometry()}).NearEnd(Viewport{Height: 600}) {
		t.Error("empty layout is never near the end")
	}
}

func TestRowAtRoundTrip(t *testing.T) {
	m := NewManager(testGeometry())
	m.SetLayout(lane.Assign(chain(50)))

	for _, row := range []int{0, 1, 25, 49} {
		got, ok := m.RowAt(m.RowCenter(row))
		if !ok || got != row {
			t.Errorf("RowAt(RowCenter(%d)) = %d, %v", row, got, ok)
		}
	}

	if got, _ := m.RowAt(1e9); got != 49 {
		t.Errorf("RowAt far below = %d, want clamped 49", got)
	}
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
