package canvas

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"testing"

	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/lane"
)

// mergeLayout is the canonical branch-and-merge fixture: b and c branch off
// a, and the merge d joins them back together.
func mergeLayout() lane.Layout {
	return lane.Assign([]*commit.Commit{
		mk("a", 300),
		mk("b", 200, "a"),
		mk("c", 200, "a"),
		mk("d", 100, "b", "c"),
	})
}

func TestExportSVGDimensions(t *testing.T) {
	l := mergeLayout()
	svg := string(ExportSVG(l, testGeo))

	content := testGeo.ContentSize(l)
	want := fmt.Sprintf(`width="%.0f" height="%.0f"`,
		content.Width+2*ExportPadding,
		content.Height+ExportHeaderHeight+2*ExportPadding)
	if !strings.Contains(svg, want) {
		t.Errorf("document missing %s:\n%s", want, svg)
	}
}

func TestExportSVGMergeNode(t *testing.T) {
	svg := string(ExportSVG(mergeLayout(), testGeo))

	// Exactly one node is a merge, and it is stroked rather than filled.
	var stroked, filled int
	for _, line := range strings.Split(svg, "\n") {
		if !strings.Contains(line, "<circle") {
			continue
		}
		if strings.Contains(line, `fill="none"`) {
			stroked++
			if !strings.Contains(line, `data-oid="d"`) {
				t.Errorf("stroked circle is not the merge node: %s", line)
			}
		} else {
			filled++
		}
	}
	if stroked != 1 {
		t.Errorf("stroked circles = %d, want 1", stroked)
	}
	if filled != 3 {
		t.Errorf("filled circles = %d, want 3", filled)
	}
}

func TestExportSVGMergeEdges(t *testing.T) {
	svg := string(ExportSVG(mergeLayout(), testGeo))

	// The merge has two parent edges: one stays in its lane (a straight
	// segment), the other changes lanes (a cubic curve).
	var straight, curved int
	for _, line := range strings.Split(svg, "\n") {
		if !strings.Contains(line, `data-to="d"`) {
			continue
		}
		switch {
		case strings.Contains(line, " C "):
			curved++
		case strings.Contains(line, " L "):
			straight++
		}
	}
	if straight != 1 || curved != 1 {
		t.Errorf("merge parent edges: straight=%d curved=%d, want 1 and 1", straight, curved)
	}
}

func TestExportSVGOptions(t *testing.T) {
	refs := map[string][]commit.RefInfo{
		"a": {{Shorthand: "v1.0", Type: commit.RefTag}},
	}
	svg := string(ExportSVG(mergeLayout(), testGeo,
		WithTitle(`repo <x> & "y"`), WithRefs(refs), WithTheme(LightTheme())))

	if !strings.Contains(svg, "repo &lt;x&gt; &amp; &quot;y&quot;") {
		t.Error("title not escaped")
	}
	if !strings.Contains(svg, ">v1.0</text>") {
		t.Error("ref pill label missing")
	}
	if !strings.Contains(svg, `fill="#ffffff"`) {
		t.Error("light background missing")
	}
}

func TestExportSVGEmptyLayout(t *testing.T) {
	svg := string(ExportSVG(lane.Layout{Nodes: map[string]*lane.Node{}}, testGeo))
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Errorf("empty layout should still produce a document:\n%s", svg)
	}
}

func TestExportPNGDimensions(t *testing.T) {
	l := mergeLayout()
	data, err := ExportPNG(l, testGeo, WithTitle("repo"))
	if err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	content := testGeo.ContentSize(l)
	wantW := int(content.Width + 2*ExportPadding)
	wantH := int(content.Height + ExportHeaderHeight + 2*ExportPadding)
	if b := img.Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Errorf("image = %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}
}

func TestExportDOT(t *testing.T) {
	dot := ExportDOT(mergeLayout(), DOTOptions{})

	for _, want := range []string{
		"digraph commits {",
		`"b" -> "d"`,
		`"c" -> "d" [style=dashed]`,
		"peripheries=2",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "row:") {
		t.Error("coordinates should only appear in detailed mode")
	}

	detailed := ExportDOT(mergeLayout(), DOTOptions{Detailed: true})
	if !strings.Contains(detailed, "row:") {
		t.Error("detailed mode should include coordinates")
	}
}
