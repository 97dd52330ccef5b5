package canvas

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/observability"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Detailed includes row/lane coordinates and timestamps in node labels.
	// When false, only the short oid and summary are shown.
	Detailed bool
}

// ExportDOT converts a layout to Graphviz DOT format for debugging and for
// rendering through an external engine. Merge commits get a doubled outline
// so the DAG structure stays readable without color.
func ExportDOT(l lane.Layout, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph commits {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	oids := make([]string, 0, len(l.Nodes))
	for oid := range l.Nodes {
		oids = append(oids, oid)
	}
	slices.Sort(oids)

	for _, oid := range oids {
		n := l.Nodes[oid]
		attrs := []string{fmt.Sprintf("label=%q", dotLabel(n, opts.Detailed))}
		if n.IsMerge() {
			attrs = append(attrs, "peripheries=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", oid, joinAttrs(attrs))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if e.IsMerge {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.FromOID, e.ToOID)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.FromOID, e.ToOID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *lane.Node, detailed bool) string {
	label := shortOID(n.OID)
	if n.Commit != nil && n.Commit.Summary != "" {
		label += "\n" + truncate(n.Commit.Summary, 40)
	}
	if detailed {
		label += fmt.Sprintf("\nrow: %d, lane: %d", n.Row, n.Lane)
		if n.Commit != nil {
			label += "\n" + n.Commit.Timestamp.UTC().Format("2006-01-02 15:04")
		}
	}
	return label
}

func shortOID(oid string) string {
	if len(oid) > 8 {
		return oid[:8]
	}
	return oid
}

func joinAttrs(attrs []string) string {
	var buf bytes.Buffer
	for i, a := range attrs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a)
	}
	return buf.String()
}

// RenderDOT renders a DOT graph to SVG using Graphviz.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	start := time.Now()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		observability.Render().OnExport("dot", 0, time.Since(start), err)
		return nil, fmt.Errorf("render: %w", err)
	}
	observability.Render().OnExport("dot", buf.Len(), time.Since(start), nil)
	return buf.Bytes(), nil
}
