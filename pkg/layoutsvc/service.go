// Package layoutsvc wraps the lane assignment engine with strategy
// selection, timing, optional invariant validation, and layout quality
// metrics.
//
// Metrics exist for diagnostics and tests, not for correctness: a layout
// with a high crossing count is still valid, just harder to read.
package layoutsvc

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/observability"
)

// Options selects the strategy and the amount of checking performed.
type Options struct {
	// Optimized selects the dense row-packing strategy.
	Optimized bool
	// Validate runs the debug invariant checks and collects violations into
	// Result.Errors. Validation failures never abort the computation.
	Validate bool
	// Logger receives stage timing at debug level. Nil disables logging.
	Logger *log.Logger
}

// Metrics describes a computed layout.
type Metrics struct {
	Duration  time.Duration
	NodeCount int
	EdgeCount int
	MaxLane   int
	TotalRows int

	// Crossings counts edge pairs whose row ranges overlap while their lanes
	// move in opposite directions - the pairs that visually intersect.
	Crossings int

	// LaneChangeFraction is the share of edges that change lanes. Lower is
	// straighter.
	LaneChangeFraction float64
}

// Result bundles a layout with its metrics and any validation findings.
type Result struct {
	Layout  lane.Layout
	Metrics Metrics
	Errors  []error
}

// Compute lays out the given commit window. It never fails: validation
// findings are returned in Result.Errors for the caller to inspect.
func Compute(commits []*commit.Commit, opts Options) Result {
	strategy := lane.Strategy(lane.Baseline{})
	mode := lane.ModeBaseline
	if opts.Optimized {
		strategy = lane.Dense{}
		mode = lane.ModeDense
	}

	observability.Layout().OnLayoutStart(strategy.Name(), len(commits))
	start := time.Now()
	l := strategy.Assign(commits)
	elapsed := time.Since(start)

	res := Result{
		Layout: l,
		Metrics: Metrics{
			Duration:           elapsed,
			NodeCount:          len(l.Nodes),
			EdgeCount:          len(l.Edges),
			MaxLane:            l.MaxLane,
			TotalRows:          l.TotalRows,
			Crossings:          CountCrossings(l.Edges),
			LaneChangeFraction: laneChangeFraction(l.Edges),
		},
	}
	if opts.Validate {
		res.Errors = lane.Validate(l, commits, mode)
	}
	observability.Layout().OnLayoutComplete(strategy.Name(), elapsed, len(res.Errors))

	if opts.Logger != nil {
		opts.Logger.Debug("computed layout",
			"strategy", strategy.Name(),
			"nodes", res.Metrics.NodeCount,
			"edges", res.Metrics.EdgeCount,
			"rows", res.Metrics.TotalRows,
			"maxLane", res.Metrics.MaxLane,
			"crossings", res.Metrics.Crossings,
			"duration", elapsed.Round(time.Microsecond))
	}
	return res
}

// CountCrossings counts edge pairs that visually intersect: their row
// spans overlap strictly and their lane movements run in opposite
// directions through overlapping lane intervals.
//
// Edges are sorted by starting row so each edge is only compared against
// the edges whose span can still overlap it; for the short spans typical of
// commit graphs this stays near-linear.
func CountCrossings(edges []lane.Edge) int {
	if len(edges) < 2 {
		return 0
	}

	sorted := slices.Clone(edges)
	slices.SortFunc(sorted, func(a, b lane.Edge) int {
		if a.FromRow != b.FromRow {
			return a.FromRow - b.FromRow
		}
		return a.ToRow - b.ToRow
	})

	crossings := 0
	for i, e := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			o := sorted[j]
			if o.FromRow >= e.ToRow {
				break
			}
			if crosses(e, o) {
				crossings++
			}
		}
	}
	return crossings
}

func crosses(a, b lane.Edge) bool {
	da := a.ToLane - a.FromLane
	db := b.ToLane - b.FromLane
	if da == 0 || db == 0 || (da > 0) == (db > 0) {
		return false
	}
	aLo, aHi := min(a.FromLane, a.ToLane), max(a.FromLane, a.ToLane)
	bLo, bHi := min(b.FromLane, b.ToLane), max(b.FromLane, b.ToLane)
	return aLo < bHi && bLo < aHi
}

func laneChangeFraction(edges []lane.Edge) float64 {
	if len(edges) == 0 {
		return 0
	}
	changed := 0
	for _, e := range edges {
		if !e.IsStraight() {
			changed++
		}
	}
	return float64(changed) / float64(len(edges))
}
