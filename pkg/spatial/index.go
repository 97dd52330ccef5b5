package spatial

import (
	"math"

	"github.com/gitscape/gitscape/pkg/lane"
)

// Defaults for index geometry and hit tolerances.
const (
	DefaultCellSize      = 64.0
	DefaultNodeRadius    = 9.0
	DefaultEdgeTolerance = 6.0
	DefaultCurveSegments = 12
)

// Kind classifies a hit test result.
type Kind int

const (
	KindNone Kind = iota
	KindNode
	KindEdge
)

// Hit is the element found under a point. For KindEdge, Edge holds a copy of
// the matched layout edge.
type Hit struct {
	Kind     Kind
	OID      string
	Edge     lane.Edge
	Distance float64
}

// Index is a uniform grid over pixel space. Each node is inserted into every
// cell its hit radius overlaps and each edge into every cell its sampled
// path overlaps, so a query inspects exactly one cell.
//
// The index is rebuilt, never patched: rebuild cost scales with the visible
// element count, which stays bounded regardless of total graph size.
type Index struct {
	tf        Transform
	cellSize  float64
	radius    float64
	tolerance float64
	segments  int

	cells map[cellKey]*cellBucket
}

type cellKey struct{ cx, cy int }

type cellBucket struct {
	nodes []indexedNode
	edges []indexedEdge
}

type indexedNode struct {
	oid  string
	x, y float64
}

type indexedEdge struct {
	edge lane.Edge
	path []Point
}

// Option configures an Index.
type Option func(*Index)

// WithCellSize sets the grid cell size in pixels.
func WithCellSize(px float64) Option {
	return func(ix *Index) {
		if px > 0 {
			ix.cellSize = px
		}
	}
}

// WithNodeRadius sets the node hit radius in pixels.
func WithNodeRadius(px float64) Option {
	return func(ix *Index) {
		if px > 0 {
			ix.radius = px
		}
	}
}

// WithEdgeTolerance sets the maximum point-to-edge distance counted as a hit.
func WithEdgeTolerance(px float64) Option {
	return func(ix *Index) {
		if px > 0 {
			ix.tolerance = px
		}
	}
}

// WithCurveSegments sets how many segments approximate a curved edge.
func WithCurveSegments(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.segments = n
		}
	}
}

// New creates an empty index with the given options.
func New(opts ...Option) *Index {
	ix := &Index{
		cellSize:  DefaultCellSize,
		radius:    DefaultNodeRadius,
		tolerance: DefaultEdgeTolerance,
		segments:  DefaultCurveSegments,
		cells:     map[cellKey]*cellBucket{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Configure sets the graph-to-pixel transform. Must be called before Build;
// changing the transform invalidates the index until the next Build.
func (ix *Index) Configure(tf Transform) {
	ix.tf = tf
}

// Transform returns the configured transform.
func (ix *Index) Transform() Transform { return ix.tf }

// Build clears and repopulates the grid from the entire layout.
func (ix *Index) Build(l lane.Layout) {
	ix.BuildVisible(l, 0, l.TotalRows-1)
}

// BuildVisible clears and repopulates the grid from the rows in
// [startRow, endRow]. Edges are included when their row span intersects the
// range, so a curve entering the viewport from off-screen is still hittable.
func (ix *Index) BuildVisible(l lane.Layout, startRow, endRow int) {
	ix.cells = make(map[cellKey]*cellBucket, len(ix.cells))
	if l.Empty() || endRow < startRow {
		return
	}

	for _, n := range l.Nodes {
		if n.Row < startRow || n.Row > endRow {
			continue
		}
		x, y := ix.tf.NodeCenter(n.Row, n.Lane)
		ix.insertNode(indexedNode{oid: n.OID, x: x, y: y})
	}
	for _, e := range l.Edges {
		if e.ToRow < startRow || e.FromRow > endRow {
			continue
		}
		ix.insertEdge(indexedEdge{edge: e, path: ix.tf.EdgePath(e, ix.segments)})
	}
}

// HitTest returns the element under (x, y). Nodes win over edges; among
// candidates of the same kind the nearest one wins. The zero Hit with
// KindNone means nothing is within tolerance.
func (ix *Index) HitTest(x, y float64) Hit {
	b, ok := ix.cells[ix.keyAt(x, y)]
	if !ok {
		return Hit{}
	}

	best := Hit{Distance: math.Inf(1)}
	for _, n := range b.nodes {
		d := math.Hypot(x-n.x, y-n.y)
		if d <= ix.radius && d < best.Distance {
			best = Hit{Kind: KindNode, OID: n.oid, Distance: d}
		}
	}
	if best.Kind == KindNode {
		return best
	}

	for _, e := range b.edges {
		d := pathDistance(e.path, x, y)
		if d <= ix.tolerance && d < best.Distance {
			best = Hit{Kind: KindEdge, Edge: e.edge, Distance: d}
		}
	}
	if best.Kind == KindNone {
		return Hit{}
	}
	return best
}

func (ix *Index) keyAt(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / ix.cellSize)),
		cy: int(math.Floor(y / ix.cellSize)),
	}
}

func (ix *Index) bucket(k cellKey) *cellBucket {
	b, ok := ix.cells[k]
	if !ok {
		b = &cellBucket{}
		ix.cells[k] = b
	}
	return b
}

func (ix *Index) insertNode(n indexedNode) {
	ix.eachCell(n.x-ix.radius, n.y-ix.radius, n.x+ix.radius, n.y+ix.radius, func(k cellKey) {
		b := ix.bucket(k)
		b.nodes = append(b.nodes, n)
	})
}

func (ix *Index) insertEdge(e indexedEdge) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range e.path {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	t := ix.tolerance
	ix.eachCell(minX-t, minY-t, maxX+t, maxY+t, func(k cellKey) {
		b := ix.bucket(k)
		b.edges = append(b.edges, e)
	})
}

func (ix *Index) eachCell(minX, minY, maxX, maxY float64, fn func(cellKey)) {
	x0 := int(math.Floor(minX / ix.cellSize))
	y0 := int(math.Floor(minY / ix.cellSize))
	x1 := int(math.Floor(maxX / ix.cellSize))
	y1 := int(math.Floor(maxY / ix.cellSize))
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			fn(cellKey{cx, cy})
		}
	}
}

// pathDistance returns the distance from (x, y) to the nearest segment of a
// polyline.
func pathDistance(path []Point, x, y float64) float64 {
	best := math.Inf(1)
	for i := 1; i < len(path); i++ {
		if d := segmentDistance(path[i-1], path[i], x, y); d < best {
			best = d
		}
	}
	return best
}

func segmentDistance(a, b Point, x, y float64) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	u := ((x-a.X)*dx + (y-a.Y)*dy) / lenSq
	u = math.Max(0, math.Min(1, u))
	return math.Hypot(x-(a.X+u*dx), y-(a.Y+u*dy))
}
