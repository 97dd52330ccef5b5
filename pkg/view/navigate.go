package view

import (
	"github.com/gitscape/gitscape/pkg/spatial"
)

// SelectCommit makes oid the primary selection, scrolls it into view, and
// notifies the host. Unknown oids return false and change nothing.
func (g *GraphView) SelectCommit(oid string) bool {
	if _, ok := g.layout.Node(oid); !ok {
		return false
	}
	g.primary = oid
	g.renderer.SetSelection(g.primary, g.selected)
	g.ensureVisible(oid)
	g.host.CommitSelected(oid)
	return true
}

// ToggleSelected flips oid's membership in the multi-selection. Unknown oids
// return false and change nothing.
func (g *GraphView) ToggleSelected(oid string) bool {
	if _, ok := g.layout.Node(oid); !ok {
		return false
	}
	if g.selected[oid] {
		delete(g.selected, oid)
	} else {
		g.selected[oid] = true
	}
	g.renderer.SetSelection(g.primary, g.selected)
	return true
}

// Selection returns the primary selection ("" for none).
func (g *GraphView) Selection() string { return g.primary }

// Navigation directions understood by [GraphView.Navigate].
type Direction int

const (
	Previous Direction = iota
	Next
	First
	Last
	PageUp
	PageDown
)

// Navigate moves the primary selection through the layout in row order. With
// no current selection it starts at the newest commit. It returns false on
// an empty layout.
func (g *GraphView) Navigate(dir Direction) bool {
	if len(g.rowOrder) == 0 {
		return false
	}

	idx := g.selectionIndex()
	page := int(g.vpH / g.geo.RowHeight)
	if page < 1 {
		page = 1
	}

	switch dir {
	case Previous:
		idx--
	case Next:
		idx++
	case First:
		idx = 0
	case Last:
		idx = len(g.rowOrder) - 1
	case PageUp:
		idx -= page
	case PageDown:
		idx += page
	}

	if idx < 0 {
		idx = 0
	}
	if idx >= len(g.rowOrder) {
		idx = len(g.rowOrder) - 1
	}
	return g.SelectCommit(g.rowOrder[idx])
}

// selectionIndex is the primary selection's position in row order, or -1
// so that the first Next lands on the newest commit.
func (g *GraphView) selectionIndex() int {
	if g.primary == "" {
		return -1
	}
	for i, oid := range g.rowOrder {
		if oid == g.primary {
			return i
		}
	}
	return -1
}

// ensureVisible scrolls the commit's row into the viewport, centered, when
// it is outside.
func (g *GraphView) ensureVisible(oid string) {
	n, ok := g.layout.Node(oid)
	if !ok || g.vpH <= 0 {
		return
	}
	center := g.manager.RowCenter(n.Row)
	top := g.state.Top()
	if center >= top && center <= top+g.vpH {
		return
	}
	g.state.ScrollTo(center-g.vpH/2, g.state.Left())
}

// Click handles a primary-button press in canvas coordinates. Ref pills
// request a checkout, the overflow marker opens the context menu, and nodes
// (or their avatars) become the selection.
func (g *GraphView) Click(x, y float64) {
	if _, ref, ok := g.renderer.LabelAt(x, y); ok {
		g.host.CheckoutRequested(ref)
		return
	}
	if oid, _, ok := g.renderer.OverflowAt(x, y); ok {
		g.host.ContextMenuRequested(oid, x, y)
		return
	}
	if oid, _, ok := g.renderer.AvatarAt(x, y); ok {
		g.SelectCommit(oid)
		return
	}
	if hit := g.hitTest(x, y); hit.Kind == spatial.KindNode {
		g.SelectCommit(hit.OID)
	}
}

// ContextMenu handles a secondary-button press: on a node it asks the host
// to open its menu at the pointer.
func (g *GraphView) ContextMenu(x, y float64) {
	if hit := g.hitTest(x, y); hit.Kind == spatial.KindNode {
		g.host.ContextMenuRequested(hit.OID, x, y)
	}
}

// Hover updates the hover highlight; the renderer ignores repeats.
func (g *GraphView) Hover(x, y float64) {
	if hit := g.hitTest(x, y); hit.Kind == spatial.KindNode {
		g.renderer.SetHovered(hit.OID)
		return
	}
	g.renderer.SetHovered("")
}

// CopyPrimarySHA asks the host to copy the selected commit's oid. It returns
// false with no selection.
func (g *GraphView) CopyPrimarySHA() bool {
	if g.primary == "" {
		return false
	}
	g.host.CopySHA(g.primary)
	return true
}

// hitTest translates canvas coordinates to content space and queries the
// spatial index.
func (g *GraphView) hitTest(x, y float64) spatial.Hit {
	return g.index.HitTest(x+g.state.Left(), y+g.state.Top())
}
