// Package spatial maps graph coordinates to pixels and answers "what is
// under this point" through a uniform grid index.
//
// The [Transform] is the single source of truth for the (row, lane) to pixel
// mapping. Every consumer - index, scroll manager, renderer, exporters -
// must apply the same transform, or hit testing drifts away from what is
// drawn.
package spatial

import "github.com/gitscape/gitscape/pkg/lane"

// Transform is the (row, lane) to pixel mapping. Lanes are mirrored: lane 0
// sits at the right edge and higher lanes extend left, so the primary line
// hugs the commit list regardless of how wide the graph grows.
type Transform struct {
	OffsetX   float64
	OffsetY   float64
	LaneWidth float64
	RowHeight float64
	MaxLane   int
}

// NodeCenter returns the pixel center for a graph cell.
func (t Transform) NodeCenter(row, lane int) (x, y float64) {
	x = t.OffsetX + float64(t.MaxLane-lane)*t.LaneWidth
	y = t.OffsetY + float64(row)*t.RowHeight
	return x, y
}

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// EdgePath returns the polyline approximation of an edge in pixel space.
// Straight edges produce their two endpoints. Lane-changing edges sample the
// cubic Bezier used for drawing at segments+1 points, with both control
// points pulled to the vertical midpoint so the curve leaves and enters its
// lanes vertically.
func (t Transform) EdgePath(e lane.Edge, segments int) []Point {
	x1, y1 := t.NodeCenter(e.FromRow, e.FromLane)
	x2, y2 := t.NodeCenter(e.ToRow, e.ToLane)
	if e.IsStraight() {
		return []Point{{x1, y1}, {x2, y2}}
	}

	midY := (y1 + y2) / 2
	if segments < 1 {
		segments = 1
	}
	pts := make([]Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		u := float64(i) / float64(segments)
		pts = append(pts, cubic(Point{x1, y1}, Point{x1, midY}, Point{x2, midY}, Point{x2, y2}, u))
	}
	return pts
}

// EdgeControlPoints returns the Bezier control points for a lane-changing
// edge, for renderers that draw the curve natively.
func (t Transform) EdgeControlPoints(e lane.Edge) (p0, c1, c2, p1 Point) {
	x1, y1 := t.NodeCenter(e.FromRow, e.FromLane)
	x2, y2 := t.NodeCenter(e.ToRow, e.ToLane)
	midY := (y1 + y2) / 2
	return Point{x1, y1}, Point{x1, midY}, Point{x2, midY}, Point{x2, y2}
}

func cubic(p0, c1, c2, p1 Point, u float64) Point {
	v := 1 - u
	a := v * v * v
	b := 3 * v * v * u
	c := 3 * v * u * u
	d := u * u * u
	return Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}
