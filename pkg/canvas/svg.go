package canvas

import (
	"bytes"
	"fmt"
	"image/color"
	"slices"
	"time"

	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/observability"
	"github.com/gitscape/gitscape/pkg/scroll"
	"github.com/gitscape/gitscape/pkg/spatial"
)

// Export framing. The document size is always the layout's content size
// plus these constants, never the viewport: exports serialize the entire
// graph.
const (
	ExportHeaderHeight = 48.0
	ExportPadding      = 16.0
)

// ExportOption configures SVG and raster exports.
type ExportOption func(*exporter)

type exporter struct {
	theme Theme
	title string
	refs  map[string][]commit.RefInfo
	stats map[string]commit.Stats
}

// WithTitle sets the header title, typically the repository name.
func WithTitle(title string) ExportOption { return func(e *exporter) { e.title = title } }

// WithTheme overrides the default dark export theme.
func WithTheme(t Theme) ExportOption { return func(e *exporter) { e.theme = t } }

// WithRefs attaches ref labels to the export.
func WithRefs(refs map[string][]commit.RefInfo) ExportOption {
	return func(e *exporter) { e.refs = refs }
}

// WithStats attaches change statistics, scaling node radii like the live
// renderer does.
func WithStats(stats map[string]commit.Stats) ExportOption {
	return func(e *exporter) { e.stats = stats }
}

func newExporter(opts ...ExportOption) exporter {
	e := exporter{theme: DarkTheme()}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ExportSVG serializes the entire layout to a standalone SVG document. The
// document width and height equal the content size under geo plus the
// export padding and header constants exactly.
func ExportSVG(l lane.Layout, geo scroll.Geometry, opts ...ExportOption) []byte {
	e := newExporter(opts...)
	start := time.Now()
	content := geo.ContentSize(l)
	width := content.Width + 2*ExportPadding
	height := content.Height + ExportHeaderHeight + 2*ExportPadding
	tf := geo.Transform(l.MaxLane)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", hexColor(e.theme.Background))

	if e.title != "" {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" fill="%s" font-family="sans-serif" font-size="16" font-weight="bold">%s</text>`+"\n",
			ExportPadding, ExportPadding+ExportHeaderHeight/2, hexColor(e.theme.Foreground), escapeText(e.title))
	}

	fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)">`+"\n", ExportPadding, ExportPadding+ExportHeaderHeight)
	e.renderEdges(&buf, l, tf)
	e.renderNodes(&buf, l, tf)
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	observability.Render().OnExport("svg", buf.Len(), time.Since(start), nil)
	return buf.Bytes()
}

func (e *exporter) renderEdges(buf *bytes.Buffer, l lane.Layout, tf spatial.Transform) {
	for _, edge := range l.Edges {
		stroke := hexColor(e.theme.Lane(edge.FromLane))
		if edge.IsStraight() {
			x, y1 := tf.NodeCenter(edge.FromRow, edge.FromLane)
			_, y2 := tf.NodeCenter(edge.ToRow, edge.ToLane)
			fmt.Fprintf(buf, `    <path d="M %.1f %.1f L %.1f %.1f" fill="none" stroke="%s" stroke-width="2" data-from="%s" data-to="%s"/>`+"\n",
				x, y1, x, y2, stroke, edge.FromOID, edge.ToOID)
			continue
		}
		p0, c1, c2, p1 := tf.EdgeControlPoints(edge)
		fmt.Fprintf(buf, `    <path d="M %.1f %.1f C %.1f %.1f %.1f %.1f %.1f %.1f" fill="none" stroke="%s" stroke-width="2" data-from="%s" data-to="%s"/>`+"\n",
			p0.X, p0.Y, c1.X, c1.Y, c2.X, c2.Y, p1.X, p1.Y, stroke, edge.FromOID, edge.ToOID)
	}
}

func (e *exporter) renderNodes(buf *bytes.Buffer, l lane.Layout, tf spatial.Transform) {
	oids := make([]string, 0, len(l.Nodes))
	for oid := range l.Nodes {
		oids = append(oids, oid)
	}
	slices.Sort(oids)

	for _, oid := range oids {
		n := l.Nodes[oid]
		x, y := tf.NodeCenter(n.Row, n.Lane)
		radius := exportNodeRadius(e.stats, oid)

		if n.IsMerge() {
			// Merge commits are stroked, not filled.
			fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="2" data-oid="%s"/>`+"\n",
				x, y, radius, hexColor(e.theme.MergeOutline), oid)
		} else {
			fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" data-oid="%s"/>`+"\n",
				x, y, radius, hexColor(e.theme.Lane(n.Lane)), oid)
		}

		e.renderLabels(buf, n, x, y)
	}
}

func (e *exporter) renderLabels(buf *bytes.Buffer, n *lane.Node, x, y float64) {
	lx := x + 14
	for _, ref := range e.refs[n.OID] {
		w := float64(len(ref.Shorthand))*charWidth + 2*pillPadX
		fill := e.theme.LocalBranch
		switch ref.Type {
		case commit.RefRemoteBranch:
			fill = e.theme.RemoteBranch
		case commit.RefTag:
			fill = e.theme.Tag
		}
		fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s"/>`+"\n",
			lx, y-pillHeight/2, w, pillHeight, pillHeight/2, hexColor(fill))
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" fill="%s" font-family="sans-serif" font-size="10">%s</text>`+"\n",
			lx+pillPadX, y+3.5, hexColor(e.theme.Background), escapeText(ref.Shorthand))
		lx += w + pillGap
	}

	if n.Commit != nil && n.Commit.Summary != "" {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" fill="%s" font-family="sans-serif" font-size="11">%s</text>`+"\n",
			lx, y+3.5, hexColor(e.theme.Foreground), escapeText(truncate(n.Commit.Summary, 80)))
	}
}

func exportNodeRadius(stats map[string]commit.Stats, oid string) float64 {
	return weightRadius(stats[oid])
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
