// Package scroll decouples the total scrollable extent of a commit graph
// from per-frame rendering cost.
//
// The [Manager] indexes a layout by row, derives the visible row/lane range
// from the viewport plus an overscan buffer, and assembles an immutable
// [RenderData] snapshot per frame. The [State] sub-component owns the
// authoritative scroll position, including wheel momentum.
package scroll

import (
	"math"

	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/spatial"
)

// Default geometry and buffering. Overscan rows avoid pop-in during fast
// scrolling; the pagination threshold decides how early older commits are
// requested.
const (
	DefaultOverscanRows  = 10
	DefaultOverscanLanes = 2
	PaginationThreshold  = 600.0 // px from the trailing edge

	edgeBucketRows = 32
)

// Geometry is the pixel configuration shared with the renderer.
type Geometry struct {
	LaneWidth float64
	RowHeight float64
	OffsetX   float64 // left padding before the highest lane
	OffsetY   float64 // top padding before row 0
}

// Transform returns the graph-to-pixel transform for a layout of the given
// width.
func (g Geometry) Transform(maxLane int) spatial.Transform {
	return spatial.Transform{
		OffsetX:   g.OffsetX,
		OffsetY:   g.OffsetY,
		LaneWidth: g.LaneWidth,
		RowHeight: g.RowHeight,
		MaxLane:   maxLane,
	}
}

// ContentSize returns the total pixel extent of a layout under this
// geometry. Exporters use it directly; [Manager.ContentSize] delegates here.
func (g Geometry) ContentSize(l lane.Layout) Size {
	if l.Empty() {
		return Size{}
	}
	return Size{
		Width:  2*g.OffsetX + float64(l.MaxLane+1)*g.LaneWidth,
		Height: 2*g.OffsetY + float64(l.TotalRows)*g.RowHeight,
	}
}

// Viewport is the visible window into the scrollable content, in pixels.
type Viewport struct {
	ScrollTop  float64
	ScrollLeft float64
	Width      float64
	Height     float64
}

// Range is an inclusive visible row/lane window.
type Range struct {
	StartRow  int
	EndRow    int
	StartLane int
	EndLane   int
}

// Size is a content extent in pixels.
type Size struct {
	Width  float64
	Height float64
}

// RenderData is the per-frame snapshot handed to the renderer. It is never
// mutated after construction; every frame gets a fresh one.
type RenderData struct {
	Nodes []*lane.Node
	Edges []lane.Edge

	// OffsetX and OffsetY map graph pixel space to canvas space at the
	// current scroll position (canvas = graph + offset).
	OffsetX float64
	OffsetY float64

	Transform spatial.Transform
	Range     Range

	// Per-oid annotations for the visible subset.
	Refs  map[string][]commit.RefInfo
	Stats map[string]commit.Stats
}

// Manager indexes a layout for viewport culling. Not safe for concurrent
// use; the whole core runs on one goroutine.
type Manager struct {
	geo           Geometry
	overscanRows  int
	overscanLanes int

	layout   lane.Layout
	rowNodes [][]*lane.Node
	// spanEdges buckets edge indices by the row buckets their span covers,
	// so visible-edge collection touches only nearby buckets.
	spanEdges map[int][]int

	refs  map[string][]commit.RefInfo
	stats map[string]commit.Stats
}

// NewManager creates a manager with the given geometry and default overscan.
func NewManager(geo Geometry) *Manager {
	return &Manager{
		geo:           geo,
		overscanRows:  DefaultOverscanRows,
		overscanLanes: DefaultOverscanLanes,
		spanEdges:     map[int][]int{},
	}
}

// SetLayout replaces the indexed layout. Called after every (re)computation;
// the indexes are rebuilt from scratch.
func (m *Manager) SetLayout(l lane.Layout) {
	m.layout = l
	m.rowNodes = make([][]*lane.Node, l.TotalRows)
	for _, n := range l.Nodes {
		if n.Row >= 0 && n.Row < l.TotalRows {
			m.rowNodes[n.Row] = append(m.rowNodes[n.Row], n)
		}
	}
	m.spanEdges = make(map[int][]int, len(l.Edges)/4+1)
	for i, e := range l.Edges {
		for b := e.FromRow / edgeBucketRows; b <= e.ToRow/edgeBucketRows; b++ {
			m.spanEdges[b] = append(m.spanEdges[b], i)
		}
	}
}

// Layout returns the currently indexed layout.
func (m *Manager) Layout() lane.Layout { return m.layout }

// SetAnnotations attaches per-oid refs and stats for inclusion in render
// snapshots. Either map may be nil.
func (m *Manager) SetAnnotations(refs map[string][]commit.RefInfo, stats map[string]commit.Stats) {
	m.refs = refs
	m.stats = stats
}

// ContentSize returns the total scrollable extent.
func (m *Manager) ContentSize() Size {
	return m.geo.ContentSize(m.layout)
}

// VisibleRange returns the row/lane window covered by the viewport plus
// overscan, clamped to layout bounds. The empty layout yields an inverted
// range.
func (m *Manager) VisibleRange(vp Viewport) Range {
	if m.layout.Empty() {
		return Range{EndRow: -1, EndLane: -1}
	}

	startRow := int(math.Floor((vp.ScrollTop-m.geo.OffsetY)/m.geo.RowHeight)) - m.overscanRows
	endRow := int(math.Ceil((vp.ScrollTop+vp.Height-m.geo.OffsetY)/m.geo.RowHeight)) + m.overscanRows

	// Lanes are mirrored, so the left viewport edge bounds the highest lane.
	maxLane := m.layout.MaxLane
	hi := maxLane - int(math.Floor((vp.ScrollLeft-m.geo.OffsetX)/m.geo.LaneWidth)) + m.overscanLanes
	lo := maxLane - int(math.Ceil((vp.ScrollLeft+vp.Width-m.geo.OffsetX)/m.geo.LaneWidth)) - m.overscanLanes

	return Range{
		StartRow:  clamp(startRow, 0, m.layout.TotalRows-1),
		EndRow:    clamp(endRow, 0, m.layout.TotalRows-1),
		StartLane: clamp(lo, 0, maxLane),
		EndLane:   clamp(hi, 0, maxLane),
	}
}

// RenderData assembles the visible subset for the current viewport. Edges
// are included when their row span intersects the visible rows, regardless
// of lane, so curves entering from the side are not clipped.
func (m *Manager) RenderData(vp Viewport) RenderData {
	r := m.VisibleRange(vp)
	rd := RenderData{
		OffsetX:   -vp.ScrollLeft,
		OffsetY:   -vp.ScrollTop,
		Transform: m.geo.Transform(m.layout.MaxLane),
		Range:     r,
		Refs:      map[string][]commit.RefInfo{},
		Stats:     map[string]commit.Stats{},
	}
	if m.layout.Empty() || r.EndRow < r.StartRow {
		return rd
	}

	for row := r.StartRow; row <= r.EndRow; row++ {
		for _, n := range m.rowNodes[row] {
			rd.Nodes = append(rd.Nodes, n)
			if refs, ok := m.refs[n.OID]; ok {
				rd.Refs[n.OID] = refs
			}
			if st, ok := m.stats[n.OID]; ok {
				rd.Stats[n.OID] = st
			}
		}
	}

	seen := map[int]bool{}
	for b := r.StartRow / edgeBucketRows; b <= r.EndRow/edgeBucketRows; b++ {
		for _, i := range m.spanEdges[b] {
			if seen[i] {
				continue
			}
			seen[i] = true
			e := m.layout.Edges[i]
			if e.ToRow >= r.StartRow && e.FromRow <= r.EndRow {
				rd.Edges = append(rd.Edges, e)
			}
		}
	}
	return rd
}

// NearEnd reports whether the viewport is within the pagination threshold of
// the bottom of the content, meaning another batch of older commits should
// be requested.
func (m *Manager) NearEnd(vp Viewport) bool {
	if m.layout.Empty() {
		return false
	}
	remaining := m.ContentSize().Height - (vp.ScrollTop + vp.Height)
	return remaining < PaginationThreshold
}

// RowAt returns the row whose band contains the content-space y coordinate,
// clamped to valid rows. Node centers sit at OffsetY + row*RowHeight, so the
// band extends half a row height to each side. ok is false for an empty
// layout.
func (m *Manager) RowAt(y float64) (row int, ok bool) {
	if m.layout.Empty() {
		return 0, false
	}
	row = int(math.Floor((y-m.geo.OffsetY)/m.geo.RowHeight + 0.5))
	return clamp(row, 0, m.layout.TotalRows-1), true
}

// RowCenter returns the content-space y of a row's node centers.
func (m *Manager) RowCenter(row int) float64 {
	return m.geo.OffsetY + float64(row)*m.geo.RowHeight
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
