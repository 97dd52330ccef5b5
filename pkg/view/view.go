// Package view is the controller tying the engine together: it owns the
// commit store, the computed layout, the scroll manager, the spatial index,
// and the renderer, and exposes the operations a host shell drives.
//
// All methods must be called from the single goroutine that owns the view.
// Asynchronous work (history loads, stats chunks) is guarded by a load
// version: every refresh bumps the version, and results carrying a stale
// version are discarded instead of applied.
package view

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gitscape/gitscape/pkg/avatar"
	"github.com/gitscape/gitscape/pkg/canvas"
	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/errors"
	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/layoutsvc"
	"github.com/gitscape/gitscape/pkg/scroll"
	"github.com/gitscape/gitscape/pkg/spatial"
)

const (
	// DefaultBatchSize is the number of commits fetched per history page.
	DefaultBatchSize = 500

	// statsChunkSize bounds a single stats request so the UI goroutine is
	// never suspended behind one huge diff computation.
	statsChunkSize = 50
)

// Source provides repository data. gitsource.Repo is the production
// implementation.
type Source interface {
	Path() string
	HeadOID() (string, error)
	Commits(ctx context.Context, limit, skip int, allBranches bool) ([]*commit.Commit, error)
	RefsByCommit(ctx context.Context) (map[string][]commit.RefInfo, error)
	Stats(ctx context.Context, oids []string) (map[string]commit.Stats, error)
	Search(ctx context.Context, query string) ([]string, error)
}

// Host receives outbound notifications. Implementations decide what a
// selection or a checkout request means in their shell; the view never acts
// on the repository itself.
type Host interface {
	CommitSelected(oid string)
	ContextMenuRequested(oid string, x, y float64)
	CheckoutRequested(ref commit.RefInfo)
	CopySHA(oid string)
}

// NoopHost ignores every notification.
type NoopHost struct{}

func (NoopHost) CommitSelected(string)                  {}
func (NoopHost) ContextMenuRequested(string, float64, float64) {}
func (NoopHost) CheckoutRequested(commit.RefInfo)       {}
func (NoopHost) CopySHA(string)                         {}

// Option configures a GraphView.
type Option func(*GraphView)

// WithBatchSize overrides the history page size.
func WithBatchSize(n int) Option {
	return func(g *GraphView) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithOptimizedLayout selects the dense row-packing strategy.
func WithOptimizedLayout(on bool) Option {
	return func(g *GraphView) { g.optimized = on }
}

// WithAllBranches loads history from every ref instead of only HEAD.
func WithAllBranches(on bool) Option {
	return func(g *GraphView) { g.allBranches = on }
}

// WithScheduler provides the frame scheduler driving scroll momentum.
func WithScheduler(s scroll.Scheduler) Option {
	return func(g *GraphView) { g.sched = s }
}

// WithTheme sets the initial renderer theme.
func WithTheme(t canvas.Theme) Option {
	return func(g *GraphView) { g.theme = t }
}

// WithAvatarLoader attaches an avatar loader to the renderer.
func WithAvatarLoader(l *avatar.Loader) Option {
	return func(g *GraphView) { g.avatars = l }
}

// WithLogger receives stage timing at debug level.
func WithLogger(l *log.Logger) Option {
	return func(g *GraphView) { g.logger = l }
}

// GraphView owns the complete visualization state for one repository.
type GraphView struct {
	src    Source
	host   Host
	geo    scroll.Geometry
	logger *log.Logger

	store *commit.Store
	refs  map[string][]commit.RefInfo
	stats map[string]commit.Stats

	layout     lane.Layout
	rowOrder   []string // oids sorted by (row, lane), navigation order
	indexRange scroll.Range

	manager  *scroll.Manager
	state    *scroll.State
	index    *spatial.Index
	renderer *canvas.Renderer

	vpW, vpH  float64
	needsData bool

	// version guards async results; exhausted stops pagination once a page
	// comes back empty.
	version   int
	exhausted bool

	primary  string
	selected map[string]bool
	matches  map[string]bool
	hidden   map[string]bool

	batchSize   int
	optimized   bool
	allBranches bool
	sched       scroll.Scheduler
	theme       canvas.Theme
	avatars     *avatar.Loader
}

// New creates a view over the given source. host may be nil.
func New(src Source, host Host, geo scroll.Geometry, opts ...Option) *GraphView {
	g := &GraphView{
		src:       src,
		host:      NoopHost{},
		geo:       geo,
		store:     commit.NewStore(),
		refs:      map[string][]commit.RefInfo{},
		stats:     map[string]commit.Stats{},
		manager:   scroll.NewManager(geo),
		index:     spatial.New(),
		selected:  map[string]bool{},
		hidden:    map[string]bool{},
		batchSize: DefaultBatchSize,
		theme:     canvas.DarkTheme(),
	}
	if host != nil {
		g.host = host
	}
	for _, opt := range opts {
		opt(g)
	}
	g.state = scroll.NewState(g.sched, g.onScroll)
	g.renderer = canvas.NewRenderer(g.theme, g.avatars)
	return g
}

func (g *GraphView) onScroll() {
	g.needsData = true
	g.syncIndex(false)
	g.renderer.MarkDirty("scroll")
}

// SetViewport resizes the drawing surface and re-clamps the scroll position.
func (g *GraphView) SetViewport(width, height, dpr float64) {
	g.vpW, g.vpH = width, height
	g.renderer.Resize(width, height, dpr)
	g.updateBounds()
	g.syncIndex(false)
	g.needsData = true
}

func (g *GraphView) viewport() scroll.Viewport {
	return scroll.Viewport{
		ScrollTop:  g.state.Top(),
		ScrollLeft: g.state.Left(),
		Width:      g.vpW,
		Height:     g.vpH,
	}
}

func (g *GraphView) updateBounds() {
	size := g.manager.ContentSize()
	g.state.SetBounds(size.Height-g.vpH, size.Width-g.vpW)
}

// Frame assembles the visible snapshot if anything changed and draws it.
// It reports whether a draw happened; hosts call it once per display frame.
func (g *GraphView) Frame() bool {
	if g.needsData {
		g.needsData = false
		g.renderer.SetRenderData(g.manager.RenderData(g.viewport()))
	}
	return g.renderer.Render()
}

// Wheel applies scroll wheel input, with momentum on the vertical axis.
func (g *GraphView) Wheel(dy, dx float64) { g.state.Wheel(dy, dx) }

// Refresh reloads history and refs from the source and recomputes the
// layout. It is idempotent for an unchanged repository. A refresh that was
// superseded while suspended applies nothing and returns nil: the newer
// load owns the state, and the caller has nothing to report.
func (g *GraphView) Refresh(ctx context.Context) error {
	g.version++
	v := g.version

	commits, err := g.src.Commits(ctx, g.batchSize, 0, g.allBranches)
	if err != nil {
		return err
	}
	refs, err := g.src.RefsByCommit(ctx)
	if err != nil {
		return err
	}
	if v != g.version {
		return nil // superseded while suspended; discard silently
	}

	g.store.Clear()
	g.store.PutAll(commits)
	g.refs = refs
	g.stats = map[string]commit.Stats{}
	g.exhausted = len(commits) < g.batchSize
	g.matches = nil
	g.renderer.SetSearchMatches(nil)
	g.recompute()

	// Selection survives a refresh only while its commit stays loaded.
	if g.primary != "" {
		if _, ok := g.layout.Node(g.primary); !ok {
			g.primary = ""
			g.selected = map[string]bool{}
			g.renderer.SetSelection("", nil)
		}
	}
	return nil
}

// LoadMore fetches the next history page and re-runs the full layout over
// the grown window. It returns the number of commits added.
func (g *GraphView) LoadMore(ctx context.Context) (int, error) {
	if g.exhausted {
		return 0, nil
	}
	v := g.version

	batch, err := g.src.Commits(ctx, g.batchSize, g.store.Len(), g.allBranches)
	if err != nil {
		return 0, err
	}
	if v != g.version {
		return 0, nil // superseded while suspended; discard silently
	}
	if len(batch) == 0 {
		g.exhausted = true
		return 0, nil
	}

	before := g.store.Len()
	g.store.PutAll(batch) // duplicates overwrite by oid
	if len(batch) < g.batchSize {
		g.exhausted = true
	}
	g.recompute()
	return g.store.Len() - before, nil
}

// MaybePaginate triggers LoadMore when the viewport is near the bottom of
// the loaded content. It reports whether a page was requested.
func (g *GraphView) MaybePaginate(ctx context.Context) (bool, error) {
	if g.exhausted || !g.manager.NearEnd(g.viewport()) {
		return false, nil
	}
	_, err := g.LoadMore(ctx)
	return true, err
}

// LoadStats fetches change statistics for every loaded commit in fixed-size
// chunks. Between chunks it verifies the load version, discarding stale
// chunks silently, and the repository identity; a repository swapped out
// underneath returns REPO_CHANGED.
func (g *GraphView) LoadStats(ctx context.Context) error {
	v := g.version
	head, err := g.src.HeadOID()
	if err != nil {
		return err
	}

	var missing []string
	for _, c := range g.store.Slice() {
		if _, ok := g.stats[c.OID]; !ok {
			missing = append(missing, c.OID)
		}
	}

	for start := 0; start < len(missing); start += statsChunkSize {
		end := min(start+statsChunkSize, len(missing))
		chunk, err := g.src.Stats(ctx, missing[start:end])
		if err != nil {
			return err
		}

		if v != g.version {
			return nil // superseded while suspended; discard silently
		}
		if h, err := g.src.HeadOID(); err != nil || h != head {
			return errors.New(errors.ErrCodeRepoChanged, "repository changed during stats load")
		}

		for oid, st := range chunk {
			g.stats[oid] = st
		}
		g.manager.SetAnnotations(g.refs, g.stats)
		g.needsData = true
		g.renderer.MarkDirty("stats")
	}
	return nil
}

// Search highlights commits matching query and returns how many loaded
// commits matched.
func (g *GraphView) Search(ctx context.Context, query string) (int, error) {
	oids, err := g.src.Search(ctx, query)
	if err != nil {
		return 0, err
	}

	matches := map[string]bool{}
	for _, oid := range oids {
		if _, ok := g.layout.Node(oid); ok {
			matches[oid] = true
		}
	}
	g.matches = matches
	g.renderer.SetSearchMatches(matches)
	return len(matches), nil
}

// ClearSearch removes the search highlight.
func (g *GraphView) ClearSearch() {
	g.matches = nil
	g.renderer.SetSearchMatches(nil)
}

// IsMatch reports whether oid is in the current search highlight.
func (g *GraphView) IsMatch(oid string) bool { return g.matches[oid] }

// Refs returns the refs pointing at oid, nil for none.
func (g *GraphView) Refs(oid string) []commit.RefInfo { return g.refs[oid] }

// Stats returns the loaded statistics for oid, if any.
func (g *GraphView) Stats(oid string) (commit.Stats, bool) {
	st, ok := g.stats[oid]
	return st, ok
}

// AvailableBranches lists the local branch names present in the loaded refs,
// sorted.
func (g *GraphView) AvailableBranches() []string {
	seen := map[string]bool{}
	var out []string
	for _, refs := range g.refs {
		for _, r := range refs {
			if r.Type == commit.RefLocalBranch && !seen[r.Shorthand] {
				seen[r.Shorthand] = true
				out = append(out, r.Shorthand)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ToggleBranch flips the visibility of a branch and recomputes the layout.
// It returns the new hidden state.
func (g *GraphView) ToggleBranch(name string) bool {
	if g.hidden[name] {
		delete(g.hidden, name)
	} else {
		g.hidden[name] = true
	}
	g.recompute()
	return g.hidden[name]
}

// HiddenBranches returns the currently hidden branch names, sorted.
func (g *GraphView) HiddenBranches() []string {
	var out []string
	for name := range g.hidden {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetHiddenBranches replaces the hidden set wholesale, typically from saved
// preferences.
func (g *GraphView) SetHiddenBranches(names []string) {
	g.hidden = map[string]bool{}
	for _, n := range names {
		g.hidden[n] = true
	}
	g.recompute()
}

// visibleCommits applies the branch filter: a commit is hidden when it is
// reachable from hidden branch tips only. Commits no branch reaches (for
// example past the pagination boundary) always stay visible.
func (g *GraphView) visibleCommits() []*commit.Commit {
	all := g.store.Slice()
	if len(g.hidden) == 0 {
		return all
	}

	var hiddenTips, visibleTips []string
	for oid, refs := range g.refs {
		for _, r := range refs {
			if r.Type == commit.RefTag {
				continue
			}
			if g.hidden[r.Shorthand] {
				hiddenTips = append(hiddenTips, oid)
			} else {
				visibleTips = append(visibleTips, oid)
			}
		}
	}

	reachHidden := g.reach(hiddenTips)
	reachVisible := g.reach(visibleTips)
	out := make([]*commit.Commit, 0, len(all))
	for _, c := range all {
		if reachHidden[c.OID] && !reachVisible[c.OID] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// reach walks first-to-last parents from the given tips across the loaded
// window.
func (g *GraphView) reach(tips []string) map[string]bool {
	seen := map[string]bool{}
	queue := append([]string(nil), tips...)
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		if seen[oid] {
			continue
		}
		c, ok := g.store.Get(oid)
		if !ok {
			continue
		}
		seen[oid] = true
		queue = append(queue, c.Parents...)
	}
	return seen
}

// recompute re-runs layout, indexing, and bounds over the current visible
// window. Layout is always from scratch; incremental appends would produce
// unstable lanes.
func (g *GraphView) recompute() {
	res := layoutsvc.Compute(g.visibleCommits(), layoutsvc.Options{
		Optimized: g.optimized,
		Logger:    g.logger,
	})
	g.layout = res.Layout

	g.manager.SetLayout(res.Layout)
	g.manager.SetAnnotations(g.refs, g.stats)
	g.index.Configure(g.geo.Transform(res.Layout.MaxLane))
	g.syncIndex(true)
	g.rowOrder = rowOrder(res.Layout)

	g.updateBounds()
	g.needsData = true
	g.renderer.MarkDirty("data")
}

// syncIndex rebuilds the spatial index over the overscanned visible rows.
// The index is scoped to the viewport, so its size tracks what is on screen
// rather than the loaded window; scrolling or resizing into new rows
// triggers a rebuild, and an unchanged range is a no-op unless forced by a
// layout change.
func (g *GraphView) syncIndex(force bool) {
	r := g.manager.VisibleRange(g.viewport())
	if !force && r == g.indexRange {
		return
	}
	g.indexRange = r
	g.index.BuildVisible(g.layout, r.StartRow, r.EndRow)
}

func rowOrder(l lane.Layout) []string {
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
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.OID
	}
	return out
}

// LoadedCommits returns the loaded window in load order.
func (g *GraphView) LoadedCommits() []*commit.Commit { return g.store.Slice() }

// Layout returns the current layout.
func (g *GraphView) Layout() lane.Layout { return g.layout }

// Renderer exposes the canvas renderer, primarily for hosts that blit its
// backing store.
func (g *GraphView) Renderer() *canvas.Renderer { return g.renderer }

// SetTheme swaps the renderer theme without reloading data.
func (g *GraphView) SetTheme(t canvas.Theme) {
	g.theme = t
	g.renderer.SetTheme(t)
}

// NotifyAvatarLoaded marks the renderer dirty after an avatar finished
// loading. The host must call it on the view's goroutine.
func (g *GraphView) NotifyAvatarLoaded(string) { g.renderer.MarkDirty("avatar") }

// ExportSVG serializes the full current layout.
func (g *GraphView) ExportSVG() []byte {
	return canvas.ExportSVG(g.layout, g.geo, g.exportOptions()...)
}

// ExportPNG rasterizes the full current layout.
func (g *GraphView) ExportPNG() ([]byte, error) {
	return canvas.ExportPNG(g.layout, g.geo, g.exportOptions()...)
}

// ExportDOT renders the current layout as Graphviz DOT.
func (g *GraphView) ExportDOT(detailed bool) string {
	return canvas.ExportDOT(g.layout, canvas.DOTOptions{Detailed: detailed})
}

func (g *GraphView) exportOptions() []canvas.ExportOption {
	return []canvas.ExportOption{
		canvas.WithTitle(filepath.Base(g.src.Path())),
		canvas.WithTheme(g.theme),
		canvas.WithRefs(g.refs),
		canvas.WithStats(g.stats),
	}
}
