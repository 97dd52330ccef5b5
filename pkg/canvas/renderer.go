package canvas

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/gitscape/gitscape/pkg/avatar"
	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/observability"
	"github.com/gitscape/gitscape/pkg/scroll"
)

// Fixed drawing geometry. The side column holds the avatar, the ref pills,
// and the ellipsis-truncated commit summary for each visible row.
const (
	baseNodeRadius = 4.5
	maxNodeRadius  = 9.0
	avatarRadius   = 9.0
	edgeWidth      = 2.0
	selectionWidth = 2.5
	pillHeight     = 14.0
	pillPadX       = 6.0
	pillGap        = 4.0
	pillMaxShare   = 0.55 // share of the side column pills may occupy
	sideGap        = 12.0
	minSideWidth   = 160.0
	overflowPadX   = 5.0
	charWidth      = 7.0 // basicfont advance
)

type box struct {
	x, y, w, h float64
}

func (b box) contains(px, py float64) bool {
	return px >= b.x && px <= b.x+b.w && py >= b.y && py <= b.y+b.h
}

type avatarBox struct {
	box
	oid   string
	email string
}

type pillBox struct {
	box
	oid string
	ref commit.RefInfo
}

type overflowBox struct {
	box
	oid    string
	hidden int
}

// Renderer paints [scroll.RenderData] snapshots into a raster backing
// store. It owns the theme and the dirty flag; every externally visible
// mutation marks it dirty and the next Render draws exactly once.
//
// Not safe for concurrent use. The avatar loader is the only collaborator
// that calls back from another goroutine, and it only triggers MarkDirty
// through the owner.
type Renderer struct {
	dc    *gg.Context
	theme Theme

	width  float64 // logical pixels
	height float64
	dpr    float64

	avatars *avatar.Loader

	rd       scroll.RenderData
	selected map[string]bool
	primary  string
	hovered  string
	matches  map[string]bool

	dirty  bool
	reason string

	// errMsg, when non-empty, replaces the graph with a centered message
	// until the next data snapshot arrives.
	errMsg string

	// export disables the viewport-fitting clamps so full-layout exports
	// place the side column at its natural position past the graph.
	export bool

	// Canvas-space hit regions recorded during the last draw, for pointer
	// queries independent of the graph-space index.
	avatarBoxes   []avatarBox
	pillBoxes     []pillBox
	overflowBoxes []overflowBox
}

// NewRenderer creates a renderer with a 1x1 backing store; callers must
// Resize before the first real frame. loader may be nil to disable avatars.
func NewRenderer(theme Theme, loader *avatar.Loader) *Renderer {
	r := &Renderer{
		theme:    theme,
		avatars:  loader,
		dpr:      1,
		selected: map[string]bool{},
	}
	r.Resize(1, 1, 1)
	return r
}

// Resize recreates the backing store at width x height logical pixels and
// the given device pixel ratio. Recreating the store resets the drawing
// transform, so the DPR scale is reapplied here and at the start of every
// draw.
func (r *Renderer) Resize(width, height float64, dpr float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if dpr <= 0 {
		dpr = 1
	}
	r.width, r.height, r.dpr = width, height, dpr
	r.dc = gg.NewContext(int(math.Ceil(width*dpr)), int(math.Ceil(height*dpr)))
	r.applyTransform()
	r.MarkDirty("resize")
}

func (r *Renderer) applyTransform() {
	r.dc.Identity()
	r.dc.Scale(r.dpr, r.dpr)
}

// MarkDirty schedules a draw on the next Render call. reason is recorded
// for observability only; the latest reason wins when marks coalesce.
func (r *Renderer) MarkDirty(reason string) {
	r.dirty = true
	r.reason = reason
}

// Dirty reports whether a draw is pending.
func (r *Renderer) Dirty() bool { return r.dirty }

// SetRenderData replaces the current frame snapshot and clears any error
// state.
func (r *Renderer) SetRenderData(rd scroll.RenderData) {
	r.rd = rd
	r.errMsg = ""
	r.MarkDirty("data")
}

// SetError replaces the canvas contents with a visible error message on the
// next Render, instead of leaving the last good frame on screen after a
// failed load. The next SetRenderData clears it.
func (r *Renderer) SetError(msg string) {
	r.errMsg = msg
	r.MarkDirty("error")
}

// SetTheme swaps the theme without touching data.
func (r *Renderer) SetTheme(t Theme) {
	r.theme = t
	r.MarkDirty("theme")
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme { return r.theme }

// SetSelection sets the primary selection and the multi-selected set.
func (r *Renderer) SetSelection(primary string, multi map[string]bool) {
	r.primary = primary
	if multi == nil {
		multi = map[string]bool{}
	}
	r.selected = multi
	r.MarkDirty("selection")
}

// SetHovered sets the hovered oid ("" for none).
func (r *Renderer) SetHovered(oid string) {
	if r.hovered == oid {
		return
	}
	r.hovered = oid
	r.MarkDirty("hover")
}

// SetSearchMatches highlights the given oids.
func (r *Renderer) SetSearchMatches(matches map[string]bool) {
	r.matches = matches
	r.MarkDirty("search")
}

// Image exposes the backing store, primarily for tests and raster export.
func (r *Renderer) Image() image.Image { return r.dc.Image() }

// Render draws the current snapshot if and only if the renderer is dirty.
// It returns whether a draw happened.
func (r *Renderer) Render() bool {
	if !r.dirty {
		return false
	}
	reason := r.reason
	r.dirty = false

	observability.Render().OnFrameStart(reason)
	start := time.Now()
	r.draw()
	observability.Render().OnFrameComplete(reason, time.Since(start))
	return true
}

func (r *Renderer) draw() {
	r.applyTransform()
	r.avatarBoxes = r.avatarBoxes[:0]
	r.pillBoxes = r.pillBoxes[:0]
	r.overflowBoxes = r.overflowBoxes[:0]

	r.dc.SetColor(r.theme.Background)
	r.dc.Clear()

	if r.errMsg != "" {
		r.dc.SetColor(r.theme.Foreground)
		r.dc.DrawStringAnchored(r.errMsg, r.width/2, r.height/2, 0.5, 0.5)
		return
	}

	sideX := r.sideX()
	r.drawEdges()
	r.drawNodes(sideX)
	r.drawSideColumn(sideX)
}

// sideX is where the side column begins in canvas space: right of the graph
// area, but never squeezing the column below its minimum width.
func (r *Renderer) sideX() float64 {
	tf := r.rd.Transform
	graphW := 2*tf.OffsetX + float64(tf.MaxLane+1)*tf.LaneWidth
	x := graphW + r.rd.OffsetX + sideGap
	if r.export {
		return x
	}
	if x > r.width-minSideWidth {
		x = r.width - minSideWidth
	}
	if x < 0 {
		x = 0
	}
	return x
}

func (r *Renderer) nodeXY(row, lane int) (float64, float64) {
	x, y := r.rd.Transform.NodeCenter(row, lane)
	return x + r.rd.OffsetX, y + r.rd.OffsetY
}

func (r *Renderer) drawEdges() {
	for _, e := range r.rd.Edges {
		x1, y1 := r.nodeXY(e.FromRow, e.FromLane)
		x2, y2 := r.nodeXY(e.ToRow, e.ToLane)

		r.dc.SetColor(r.theme.Lane(e.FromLane))
		r.dc.SetLineWidth(edgeWidth)
		if e.IsStraight() {
			r.dc.DrawLine(x1, y1, x2, y2)
		} else {
			midY := (y1 + y2) / 2
			r.dc.MoveTo(x1, y1)
			r.dc.CubicTo(x1, midY, x2, midY, x2, y2)
		}
		r.dc.Stroke()
	}
}

func (r *Renderer) drawNodes(sideX float64) {
	for _, n := range r.rd.Nodes {
		x, y := r.nodeXY(n.Row, n.Lane)
		if x > sideX {
			continue
		}
		radius := r.nodeRadius(n.OID)
		laneColor := r.theme.Lane(n.Lane)

		if n.IsMerge() {
			// Merge commits are stroked, not filled.
			r.dc.SetColor(r.theme.MergeOutline)
			r.dc.SetLineWidth(edgeWidth)
			r.dc.DrawCircle(x, y, radius)
			r.dc.Stroke()
		} else {
			r.dc.SetColor(laneColor)
			r.dc.DrawCircle(x, y, radius)
			r.dc.Fill()
		}

		switch {
		case n.OID == r.primary || r.selected[n.OID]:
			r.ring(x, y, radius+2.5, r.theme.Selection)
		case n.OID == r.hovered:
			r.ring(x, y, radius+2.5, r.theme.Hover)
		case r.matches[n.OID]:
			r.ring(x, y, radius+2.5, r.theme.SearchMatch)
		}
	}
}

func (r *Renderer) ring(x, y, radius float64, c color.Color) {
	r.dc.SetColor(c)
	r.dc.SetLineWidth(selectionWidth)
	r.dc.DrawCircle(x, y, radius)
	r.dc.Stroke()
}

// nodeRadius scales the base radius by a log-transformed change weight so a
// thousand-line commit reads bigger without dwarfing the graph.
func (r *Renderer) nodeRadius(oid string) float64 {
	return weightRadius(r.rd.Stats[oid])
}

// weightRadius is shared by the live renderer and the exporters so nodes
// keep their size across surfaces.
func weightRadius(st commit.Stats) float64 {
	if st.Weight() <= 0 {
		return baseNodeRadius
	}
	radius := baseNodeRadius + math.Log1p(float64(st.Weight()))/2
	return math.Min(radius, maxNodeRadius)
}

func (r *Renderer) drawSideColumn(sideX float64) {
	colWidth := r.width - sideX
	if len(r.rd.Nodes) == 0 || (!r.export && colWidth < minSideWidth/2) {
		return
	}

	for _, n := range r.rd.Nodes {
		_, y := r.nodeXY(n.Row, 0)
		if y < -r.rd.Transform.RowHeight || y > r.height+r.rd.Transform.RowHeight {
			continue
		}
		c := n.Commit
		x := sideX

		x = r.drawAvatar(x, y, n.OID, c)
		x = r.drawPills(x, y, n.OID, colWidth)
		r.drawSummary(x, y, n.Lane, c)
	}
}

// drawAvatar draws the author's avatar clipped to a circle, or an initials
// disc while the image is loading or permanently unavailable.
func (r *Renderer) drawAvatar(x, y float64, oid string, c *commit.Commit) float64 {
	cx, cy := x+avatarRadius, y

	var img image.Image
	if r.avatars != nil && c.AuthorEmail != "" {
		img, _ = r.avatars.Image(c.AuthorEmail)
	}
	if img != nil {
		r.dc.Push()
		r.dc.DrawCircle(cx, cy, avatarRadius)
		r.dc.Clip()
		b := img.Bounds()
		scale := (2 * avatarRadius) / float64(max(b.Dx(), b.Dy()))
		r.dc.Push()
		r.dc.Translate(cx-avatarRadius, cy-avatarRadius)
		r.dc.Scale(scale, scale)
		r.dc.DrawImage(img, 0, 0)
		r.dc.Pop()
		r.dc.ResetClip()
		r.dc.Pop()
	} else {
		r.dc.SetColor(r.theme.MutedText)
		r.dc.DrawCircle(cx, cy, avatarRadius)
		r.dc.Fill()
		r.dc.SetColor(r.theme.Background)
		r.dc.DrawStringAnchored(avatar.Initials(c.AuthorName, c.AuthorEmail), cx, cy, 0.5, 0.35)
	}

	r.avatarBoxes = append(r.avatarBoxes, avatarBox{
		box:   box{x: cx - avatarRadius, y: cy - avatarRadius, w: 2 * avatarRadius, h: 2 * avatarRadius},
		oid:   oid,
		email: c.AuthorEmail,
	})
	return x + 2*avatarRadius + sideGap/2
}

// drawPills draws type-colored rounded-rect ref labels, a HEAD outline on
// the checked-out branch, and a "+N" overflow marker when the labels would
// eat the message space.
func (r *Renderer) drawPills(x, y float64, oid string, colWidth float64) float64 {
	refs := r.rd.Refs[oid]
	if len(refs) == 0 {
		return x
	}

	limit := r.sideX() + colWidth*pillMaxShare
	for i, ref := range refs {
		label := ref.Shorthand
		w := float64(len(label))*charWidth + 2*pillPadX

		if x+w > limit {
			hidden := len(refs) - i
			ow := float64(len(itoa(hidden))+1)*charWidth + 2*overflowPadX
			ob := box{x: x, y: y - pillHeight/2, w: ow, h: pillHeight}
			r.dc.SetColor(r.theme.MutedText)
			r.dc.DrawRoundedRectangle(ob.x, ob.y, ob.w, ob.h, 4)
			r.dc.Fill()
			r.dc.SetColor(r.theme.Background)
			r.dc.DrawStringAnchored("+"+itoa(hidden), ob.x+ob.w/2, y, 0.5, 0.35)
			r.overflowBoxes = append(r.overflowBoxes, overflowBox{box: ob, oid: oid, hidden: hidden})
			return x + ow + pillGap
		}

		b := box{x: x, y: y - pillHeight/2, w: w, h: pillHeight}
		r.dc.SetColor(r.pillColor(ref.Type))
		r.dc.DrawRoundedRectangle(b.x, b.y, b.w, b.h, pillHeight/2)
		r.dc.Fill()
		if ref.IsHead {
			r.dc.SetColor(r.theme.HeadOutline)
			r.dc.SetLineWidth(1.5)
			r.dc.DrawRoundedRectangle(b.x-1, b.y-1, b.w+2, b.h+2, pillHeight/2)
			r.dc.Stroke()
		}
		r.dc.SetColor(r.theme.Background)
		r.dc.DrawStringAnchored(label, b.x+b.w/2, y, 0.5, 0.35)

		r.pillBoxes = append(r.pillBoxes, pillBox{box: b, oid: oid, ref: ref})
		x += w + pillGap
	}
	return x
}

func (r *Renderer) pillColor(t commit.RefType) color.Color {
	switch t {
	case commit.RefRemoteBranch:
		return r.theme.RemoteBranch
	case commit.RefTag:
		return r.theme.Tag
	default:
		return r.theme.LocalBranch
	}
}

// drawSummary draws the commit message, color-matched to the node's lane
// and ellipsis-truncated to the remaining column width.
func (r *Renderer) drawSummary(x, y float64, lane int, c *commit.Commit) {
	available := r.width - x - sideGap
	if available < charWidth {
		return
	}
	text := truncate(c.Summary, int(available/charWidth))
	if text == "" {
		return
	}
	r.dc.SetColor(r.theme.Lane(lane))
	r.dc.DrawStringAnchored(text, x, y, 0, 0.35)
}

// truncate cuts s to at most maxChars runes, appending an ellipsis when
// anything was removed.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars == 1 {
		return "…"
	}
	return string(runes[:maxChars-1]) + "…"
}

// AvatarAt returns the commit and author email whose avatar is under the
// canvas-space point, based on the last drawn frame.
func (r *Renderer) AvatarAt(x, y float64) (oid, email string, ok bool) {
	for _, b := range r.avatarBoxes {
		if b.contains(x, y) {
			return b.oid, b.email, true
		}
	}
	return "", "", false
}

// LabelAt returns the ref pill under the canvas-space point.
func (r *Renderer) LabelAt(x, y float64) (oid string, ref commit.RefInfo, ok bool) {
	for _, b := range r.pillBoxes {
		if b.contains(x, y) {
			return b.oid, b.ref, true
		}
	}
	return "", commit.RefInfo{}, false
}

// OverflowAt returns the "+N" affordance under the canvas-space point and
// how many labels it hides.
func (r *Renderer) OverflowAt(x, y float64) (oid string, hidden int, ok bool) {
	for _, b := range r.overflowBoxes {
		if b.contains(x, y) {
			return b.oid, b.hidden, true
		}
	}
	return "", 0, false
}
