package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gitscape/gitscape/pkg/gitsource"
	"github.com/gitscape/gitscape/pkg/view"
)

// newViewCmd creates the view command: an interactive terminal browser over
// the commit graph, backed by the same controller the graphical hosts use.
func newViewCmd() *cobra.Command {
	opts := repoOpts{}

	cmd := &cobra.Command{
		Use:   "view [repo]",
		Short: "Browse the commit graph interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), repoArg(args), &opts)
		},
	}

	addRepoFlags(cmd, &opts, 500)
	return cmd
}

// runView wires the graph controller to a bubbletea program.
func runView(ctx context.Context, repo string, opts *repoOpts) error {
	src, err := gitsource.Open(repo)
	if err != nil {
		return err
	}
	theme, geo, err := resolveTheme(opts.theme)
	if err != nil {
		return err
	}

	prefs := loadPrefs()
	vopts := []view.Option{
		view.WithBatchSize(opts.limit),
		view.WithAllBranches(opts.allBranches),
		view.WithOptimizedLayout(opts.optimized),
		view.WithTheme(theme),
	}
	if prefs.Avatars {
		vopts = append(vopts, view.WithAvatarLoader(newAvatarLoader(nil)))
	}
	g := view.New(src, nil, geo, vopts...)

	hidden := prefs.Repo(src.Path()).HiddenBranches

	model := newGraphModel(ctx, g, src.Path(), hidden)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// Messages delivered by background commands.
type (
	loadedMsg struct{ err error }
	statsMsg  struct{ err error }
	moreMsg   struct {
		added int
		err   error
	}
)

// graphModel is the bubbletea model for the interactive viewer. All graph
// state lives in the controller; the model only tracks terminal concerns.
type graphModel struct {
	ctx    context.Context
	g      *view.GraphView
	gt     *graphText
	repo   string
	hidden []string // saved branch filter, applied after the first load

	width  int
	height int
	offset int // first visible row

	searching bool
	query     string
	status    string
	err       error
}

func newGraphModel(ctx context.Context, g *view.GraphView, repo string, hidden []string) *graphModel {
	return &graphModel{ctx: ctx, g: g, repo: repo, hidden: hidden}
}

func (m *graphModel) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.g.Refresh(m.ctx)}
	}
}

// listHeight is the number of commit rows that fit between the chrome.
func (m *graphModel) listHeight() int {
	h := m.height - 6 // title, hint, blank, blank, detail, footer
	if h < 3 {
		h = 3
	}
	return h
}

func (m *graphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.err = msg.err
		if msg.err == nil && len(m.hidden) > 0 {
			m.g.SetHiddenBranches(m.hidden)
			m.hidden = nil
		}
		m.refreshText()
		m.status = fmt.Sprintf("loaded %d commits", len(m.g.LoadedCommits()))

	case statsMsg:
		if msg.err != nil {
			m.status = "stats: " + msg.err.Error()
		} else {
			m.status = "statistics loaded"
		}

	case moreMsg:
		if msg.err != nil {
			m.status = "load more: " + msg.err.Error()
		} else if msg.added == 0 {
			m.status = "history exhausted"
		} else {
			m.refreshText()
			m.status = fmt.Sprintf("loaded %d more commits", msg.added)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Page navigation steps by one screen of rows.
		m.g.SetViewport(float64(msg.Width), float64(m.listHeight())*defaultGeometry.RowHeight, 1)

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// updateSearch handles keys while the search prompt is open.
func (m *graphModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.searching = false
		m.query = ""
		m.g.ClearSearch()
	case tea.KeyEnter:
		m.searching = false
		n, err := m.g.Search(m.ctx, m.query)
		if err != nil {
			m.status = "search: " + err.Error()
		} else {
			m.status = fmt.Sprintf("%d matches", n)
		}
	case tea.KeyBackspace:
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
		}
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	}
	return m, nil
}

// updateKeys handles normal-mode keys.
func (m *graphModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "j", "down":
		m.navigate(view.Next)
	case "k", "up":
		m.navigate(view.Previous)
	case "g", "home":
		m.navigate(view.First)
	case "G", "end":
		m.navigate(view.Last)
	case "ctrl+d", "pgdown":
		m.navigate(view.PageDown)
	case "ctrl+u", "pgup":
		m.navigate(view.PageUp)
	case "/":
		m.searching = true
		m.query = ""
	case "s":
		return m, func() tea.Msg { return statsMsg{err: m.g.LoadStats(m.ctx)} }
	case "m":
		return m, func() tea.Msg {
			added, err := m.g.LoadMore(m.ctx)
			return moreMsg{added: added, err: err}
		}
	case "e":
		m.exportSVG()
	case "y":
		if m.g.CopyPrimarySHA() {
			m.status = "copied " + shortOID(m.g.Selection())
		}
	}
	return m, nil
}

// navigate moves the selection and keeps its line on screen.
func (m *graphModel) navigate(dir view.Direction) {
	if !m.g.Navigate(dir) || m.gt == nil {
		return
	}
	i, ok := m.gt.lineOf(m.g.Selection())
	if !ok {
		return
	}
	if i < m.offset {
		m.offset = i
	}
	if i >= m.offset+m.listHeight() {
		m.offset = i - m.listHeight() + 1
	}
}

// refreshText rebuilds the text rendition after the layout changed and
// re-clamps the scroll offset.
func (m *graphModel) refreshText() {
	m.gt = newGraphText(m.g.Layout())
	if m.offset >= m.gt.rows() {
		m.offset = 0
	}
}

// exportSVG writes the current layout next to the working directory.
func (m *graphModel) exportSVG() {
	path := filepath.Base(m.repo) + ".svg"
	if err := os.WriteFile(path, m.g.ExportSVG(), 0644); err != nil {
		m.status = "export: " + err.Error()
		return
	}
	m.status = "exported " + path
}

func (m *graphModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("gitscape"))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(m.repo))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("j/k navigate · / search · s stats · m more · e export · y copy · q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render(m.err.Error()))
		b.WriteString("\n")
		return b.String()
	}
	if m.gt == nil {
		b.WriteString(StyleDim.Render("loading..."))
		b.WriteString("\n")
		return b.String()
	}

	end := m.offset + m.listHeight()
	if end > m.gt.rows() {
		end = m.gt.rows()
	}
	for line := m.offset; line < end; line++ {
		b.WriteString(m.rowLine(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detailLine())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

// rowLine renders one visible commit line.
func (m *graphModel) rowLine(line int) string {
	n := m.gt.node(line)

	selected := n.OID == m.g.Selection()
	cursor := "  "
	if selected {
		cursor = styleSelected.Render("▸ ")
	}

	oid := styleOID.Render(shortOID(n.OID))
	if m.g.IsMatch(n.OID) {
		oid = styleMatch.Render(shortOID(n.OID))
	}

	out := cursor + m.gt.line(line) + oid
	if decoration := formatRefs(m.g.Refs(n.OID)); decoration != "" {
		out += "  " + decoration
	}
	if n.Commit != nil {
		summary := n.Commit.Summary
		if selected {
			summary = styleSelected.Render(summary)
		}
		out += "  " + summary
	}
	return truncateANSI(out, m.width)
}

// detailLine describes the selected commit.
func (m *graphModel) detailLine() string {
	n, ok := m.g.Layout().Node(m.g.Selection())
	if !ok || n.Commit == nil {
		return StyleDim.Render("no selection")
	}
	c := n.Commit
	detail := fmt.Sprintf("%s  %s <%s>  %s",
		shortOID(c.OID), c.AuthorName, c.AuthorEmail, formatRelativeTime(c.Timestamp))
	if st, ok := m.g.Stats(c.OID); ok {
		detail += fmt.Sprintf("  +%d/-%d in %d files", st.Additions, st.Deletions, st.FilesChanged)
		if st.Signed {
			detail += "  signed"
		}
	}
	return StyleDim.Render(detail)
}

// footer shows the search prompt or the status line with position.
func (m *graphModel) footer() string {
	if m.searching {
		return styleSelected.Render("/" + m.query + "█")
	}
	pos := ""
	if m.gt != nil {
		if i, ok := m.gt.lineOf(m.g.Selection()); ok {
			pos = fmt.Sprintf("  [%d/%d]", i+1, m.gt.rows())
		}
	}
	return StyleDim.Render(m.status + pos)
}

// truncateANSI limits a rendered line to the terminal width, counting
// printable runes and skipping over escape sequences.
func truncateANSI(s string, width int) string {
	if width <= 0 {
		return s
	}
	var b strings.Builder
	visible := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			b.WriteRune(r)
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			b.WriteRune(r)
			inEscape = true
		default:
			if visible >= width {
				continue
			}
			b.WriteRune(r)
			visible++
		}
	}
	return b.String()
}
