package canvas

import (
	"bytes"
	"image/png"
	"time"

	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/observability"
	"github.com/gitscape/gitscape/pkg/scroll"
)

// ExportPNG rasterizes the entire layout to a PNG document with the same
// framing as [ExportSVG]: content size plus padding and header constants.
// The whole graph is drawn regardless of any viewport.
func ExportPNG(l lane.Layout, geo scroll.Geometry, opts ...ExportOption) ([]byte, error) {
	e := newExporter(opts...)
	content := geo.ContentSize(l)
	width := content.Width + 2*ExportPadding
	height := content.Height + ExportHeaderHeight + 2*ExportPadding

	start := time.Now()

	rd := scroll.RenderData{
		OffsetX:   ExportPadding,
		OffsetY:   ExportPadding + ExportHeaderHeight,
		Transform: geo.Transform(l.MaxLane),
		Refs:      e.refs,
		Stats:     e.stats,
	}
	for _, n := range l.Nodes {
		rd.Nodes = append(rd.Nodes, n)
	}
	rd.Edges = append(rd.Edges, l.Edges...)

	r := NewRenderer(e.theme, nil)
	r.export = true
	r.Resize(width, height, 1)
	r.SetRenderData(rd)
	r.Render()
	if e.title != "" {
		r.dc.SetColor(e.theme.Foreground)
		r.dc.DrawStringAnchored(e.title, ExportPadding, ExportPadding+ExportHeaderHeight/2, 0, 0.35)
	}

	var buf bytes.Buffer
	err := png.Encode(&buf, r.Image())
	observability.Render().OnExport("png", buf.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
