package layoutsvc

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
		Summary:   "commit " + oid,
	}
}

func TestComputeBaseline(t *testing.T) {
	commits := []*commit.Commit{
		mk("a", 300),
		mk("b", 200, "a"),
		mk("c", 200, "a"),
		mk("d", 100, "b", "c"),
	}
	res := Compute(commits, Options{Validate: true})

	if len(res.Errors) != 0 {
		t.Fatalf("validation errors: %v", res.Errors)
	}
	if res.Metrics.NodeCount != 4 {
		t.Errorf("NodeCount = %d, want 4", res.Metrics.NodeCount)
	}
	if res.Metrics.EdgeCount != 4 {
		t.Errorf("EdgeCount = %d, want 4", res.Metrics.EdgeCount)
	}
	if res.Metrics.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", res.Metrics.TotalRows)
	}
	if res.Metrics.MaxLane != 1 {
		t.Errorf("MaxLane = %d, want 1", res.Metrics.MaxLane)
	}
	// Two of the four edges change lanes (into and out of lane 1).
	if got := res.Metrics.LaneChangeFraction; got != 0.5 {
		t.Errorf("LaneChangeFraction = %v, want 0.5", got)
	}
}

func TestComputeOptimizedPacksRows(t *testing.T) {
	commits := []*commit.Commit{
		mk("q", 200, "r"),
		mk("p", 200, "r"),
		mk("r", 100),
	}
	base := Compute(commits, Options{})
	dense := Compute(commits, Options{Optimized: true, Validate: true})

	if len(dense.Errors) != 0 {
		t.Fatalf("validation errors: %v", dense.Errors)
	}
	if dense.Metrics.TotalRows >= base.Metrics.TotalRows {
		t.Errorf("dense rows = %d, baseline = %d, want fewer",
			dense.Metrics.TotalRows, base.Metrics.TotalRows)
	}
}

func TestCountCrossings(t *testing.T) {
	tests := []struct {
		name  string
		edges []lane.Edge
		want  int
	}{
		{"empty", nil, 0},
		{
			"parallel straight lines",
			[]lane.Edge{
				{FromRow: 0, ToRow: 2, FromLane: 0, ToLane: 0},
				{FromRow: 0, ToRow: 2, FromLane: 1, ToLane: 1},
			},
			0,
		},
		{
			"opposite diagonals over the same rows",
			[]lane.Edge{
				{FromRow: 0, ToRow: 2, FromLane: 0, ToLane: 1},
				{FromRow: 0, ToRow: 2, FromLane: 1, ToLane: 0},
			},
			1,
		},
		{
			"opposite diagonals in disjoint row ranges",
			[]lane.Edge{
				{FromRow: 0, ToRow: 1, FromLane: 0, ToLane: 1},
				{FromRow: 3, ToRow: 4, FromLane: 1, ToLane: 0},
			},
			0,
		},
		{
			"same direction diagonals never cross",
			[]lane.Edge{
				{FromRow: 0, ToRow: 2, FromLane: 0, ToLane: 1},
				{FromRow: 0, ToRow: 2, FromLane: 1, ToLane: 2},
			},
			0,
		},
		{
			"disjoint lane intervals",
			[]lane.Edge{
				{FromRow: 0, ToRow: 2, FromLane: 0, ToLane: 1},
				{FromRow: 0, ToRow: 2, FromLane: 5, ToLane: 4},
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountCrossings(tt.edges); got != tt.want {
				t.Errorf("CountCrossings = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeEmpty(t *testing.T) {
	res := Compute(nil, Options{Validate: true})
	if !res.Layout.Empty() {
		t.Error("expected empty layout")
	}
	if len(res.Errors) != 0 {
		t.Errorf("validation errors on empty input: %v", res.Errors)
	}
}
