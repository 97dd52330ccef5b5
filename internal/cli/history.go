package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitscape/gitscape/pkg/commit"
)

// logOpts holds the command-line flags for the log command.
type logOpts struct {
	repoOpts
	stats bool // append per-commit change statistics
}

// newLogCmd creates the log command: the commit graph printed straight to
// the terminal, one row per commit with lane glyphs on the left.
func newLogCmd() *cobra.Command {
	opts := logOpts{}

	cmd := &cobra.Command{
		Use:   "log [repo]",
		Short: "Print the commit graph to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd.Context(), repoArg(args), &opts)
		},
	}

	addRepoFlags(cmd, &opts.repoOpts, 50)
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "show per-commit change statistics")

	return cmd
}

// runLog loads the window and prints it row by row.
func runLog(ctx context.Context, repo string, opts *logOpts) error {
	data, err := loadGraph(ctx, repo, &opts.repoOpts)
	if err != nil {
		return err
	}

	var stats map[string]commit.Stats
	if opts.stats {
		stats, err = data.source.Stats(ctx, layoutOIDs(data.layout))
		if err != nil {
			return err
		}
	}

	gt := newGraphText(data.layout)
	for line := 0; line < gt.rows(); line++ {
		fmt.Println(logLine(gt, line, data.refs, stats))
	}
	printGraphStats(data.result.Metrics.NodeCount, data.result.Metrics.EdgeCount,
		data.result.Metrics.MaxLane+1, data.result.Metrics.Crossings)
	return nil
}

// logLine formats one commit line: lane glyphs, short oid, refs, summary,
// author, age, and optionally change statistics.
func logLine(gt *graphText, line int, refs map[string][]commit.RefInfo, stats map[string]commit.Stats) string {
	n := gt.node(line)

	var b strings.Builder
	b.WriteString(gt.line(line))
	b.WriteString(styleOID.Render(shortOID(n.OID)))

	if decoration := formatRefs(refs[n.OID]); decoration != "" {
		b.WriteString("  ")
		b.WriteString(decoration)
	}

	if n.Commit != nil {
		b.WriteString("  ")
		b.WriteString(n.Commit.Summary)
		b.WriteString("  ")
		b.WriteString(styleAuthor.Render(n.Commit.AuthorName))
		b.WriteString(StyleDim.Render(" · " + formatRelativeTime(n.Commit.Timestamp)))
	}

	if st, ok := stats[n.OID]; ok {
		b.WriteString("  ")
		b.WriteString(StyleSuccess.Render(fmt.Sprintf("+%d", st.Additions)))
		b.WriteString(StyleDim.Render("/"))
		b.WriteString(styleIconError.Render(fmt.Sprintf("-%d", st.Deletions)))
	}
	return b.String()
}

// formatRefs renders the decoration list for a commit: the checked-out branch
// bold, tags prefixed, remotes as-is.
func formatRefs(refs []commit.RefInfo) string {
	if len(refs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		switch {
		case r.IsHead:
			parts = append(parts, styleHeadRef.Render("HEAD -> "+r.Shorthand))
		case r.Type == commit.RefTag:
			parts = append(parts, styleTag.Render("tag: "+r.Shorthand))
		default:
			parts = append(parts, styleRef.Render(r.Shorthand))
		}
	}
	return StyleDim.Render("(") + strings.Join(parts, StyleDim.Render(", ")) + StyleDim.Render(")")
}

// shortOID abbreviates an oid for display.
func shortOID(oid string) string {
	if len(oid) > 8 {
		return oid[:8]
	}
	return oid
}

// formatRelativeTime renders an age like "3h ago", falling back to a date for
// anything older than a week.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
