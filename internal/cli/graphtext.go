package cli

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gitscape/gitscape/pkg/lane"
)

// Glyphs used for the terminal rendition of the graph. Lane 0 is printed
// leftmost; the terminal does not mirror lanes the way the pixel renderer
// does.
const (
	glyphNode  = '●'
	glyphMerge = '◉'
	glyphPass  = '│'
	glyphBlank = ' '
)

// graphText renders a layout as one rune line per commit, for the log
// command and the interactive viewer. Dense layouts place several commits on
// one layout row; each still gets its own line, ordered by (row, lane).
type graphText struct {
	layout lane.Layout
	nodes  []*lane.Node
	lines  map[string]int // oid -> line index
}

func newGraphText(l lane.Layout) *graphText {
	nodes := make([]*lane.Node, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Row != nodes[j].Row {
			return nodes[i].Row < nodes[j].Row
		}
		return nodes[i].Lane < nodes[j].Lane
	})
	lines := make(map[string]int, len(nodes))
	for i, n := range nodes {
		lines[n.OID] = i
	}
	return &graphText{layout: l, nodes: nodes, lines: lines}
}

// rows returns the number of printable lines, one per commit.
func (g *graphText) rows() int { return len(g.nodes) }

// node returns the commit on a line.
func (g *graphText) node(line int) *lane.Node { return g.nodes[line] }

// lineOf returns the line a commit is printed on.
func (g *graphText) lineOf(oid string) (int, bool) {
	i, ok := g.lines[oid]
	return i, ok
}

// edgeLane reports the lane an edge occupies while passing through row
// (exclusive of its endpoints). A lane-changing edge stays in its origin lane
// up to the midpoint and switches after, approximating the renderer's curve.
func edgeLane(e lane.Edge, row int) (int, bool) {
	if row <= e.FromRow || row >= e.ToRow {
		return 0, false
	}
	mid := e.FromRow + (e.ToRow-e.FromRow)/2
	if row <= mid {
		return e.FromLane, true
	}
	return e.ToLane, true
}

// cells produces one rune per lane for a line: the commit glyph in its lane,
// pass-through bars for edges spanning its row, blanks elsewhere.
func (g *graphText) cells(line int) []rune {
	n := g.nodes[line]
	out := make([]rune, g.layout.MaxLane+1)
	for i := range out {
		out[i] = glyphBlank
	}
	for _, e := range g.layout.Edges {
		if l, ok := edgeLane(e, n.Row); ok {
			out[l] = glyphPass
		}
	}
	if n.IsMerge() {
		out[n.Lane] = glyphMerge
	} else {
		out[n.Lane] = glyphNode
	}
	return out
}

// line renders a line's cells as a styled string, one glyph and one space
// per lane, colored by lane.
func (g *graphText) line(line int) string {
	var b strings.Builder
	for ln, r := range g.cells(line) {
		if r == glyphBlank {
			b.WriteString("  ")
			continue
		}
		b.WriteString(laneStyle(ln).Render(string(r)))
		b.WriteByte(' ')
	}
	return b.String()
}

// plainLine renders a line's cells without styling, for tests and dumb
// terminals.
func (g *graphText) plainLine(line int) string {
	var b strings.Builder
	for _, r := range g.cells(line) {
		b.WriteRune(r)
		b.WriteByte(' ')
	}
	return strings.TrimRight(b.String(), " ")
}

// laneStyle colors a glyph by its lane, cycling through the terminal lane
// palette.
func laneStyle(ln int) lipgloss.Style {
	if ln < 0 {
		ln = 0
	}
	return laneStyles[ln%len(laneStyles)]
}
