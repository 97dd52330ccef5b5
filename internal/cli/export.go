package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitscape/gitscape/pkg/canvas"
	"github.com/gitscape/gitscape/pkg/scroll"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	repoOpts
	output   string // output file path (or base path for multiple formats)
	formats  []string
	detailed bool // include row/lane coordinates in DOT labels
	stats    bool // fetch change statistics and scale nodes by them
}

// newExportCmd creates the export command for writing graph documents.
// It supports SVG (native), PNG (rasterized), and DOT (Graphviz source).
func newExportCmd() *cobra.Command {
	var formatsStr string
	opts := exportOpts{}

	cmd := &cobra.Command{
		Use:   "export [repo]",
		Short: "Export the commit graph as SVG, PNG, or DOT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return runExport(cmd.Context(), repoArg(args), &opts)
		},
	}

	addRepoFlags(cmd, &opts.repoOpts, 500)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include row/lane coordinates in DOT labels")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "scale nodes by change statistics")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported export formats.
var validFormats = map[string]bool{"svg": true, "png": true, "dot": true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', or 'dot')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output flag and the
// repository path. If output is empty, the repository directory name is used.
// If output carries a format extension (.svg, .png, .dot), that extension is
// stripped so per-format suffixes can be appended.
func basePath(output, repo string) string {
	if output == "" {
		abs, err := filepath.Abs(repo)
		if err != nil {
			return "graph"
		}
		return filepath.Base(abs)
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runExport loads the graph and writes every requested format.
func runExport(ctx context.Context, repo string, opts *exportOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Exporting %s", repo)

	data, err := loadGraph(ctx, repo, &opts.repoOpts)
	if err != nil {
		return err
	}

	theme, geo, err := resolveTheme(opts.theme)
	if err != nil {
		return err
	}

	canvasOpts := []canvas.ExportOption{
		canvas.WithTitle(filepath.Base(data.source.Path())),
		canvas.WithTheme(theme),
		canvas.WithRefs(data.refs),
	}
	if opts.stats {
		stats, err := data.source.Stats(ctx, layoutOIDs(data.layout))
		if err != nil {
			return err
		}
		logger.Debugf("Loaded statistics for %d commits", len(stats))
		canvasOpts = append(canvasOpts, canvas.WithStats(stats))
	}

	if len(opts.formats) == 1 {
		path := opts.output
		if path == "" {
			path = basePath("", repo) + "." + opts.formats[0]
		}
		return writeExport(ctx, data, opts.formats[0], path, geo, canvasOpts, opts.detailed)
	}

	base := basePath(opts.output, repo)
	for _, format := range opts.formats {
		path := fmt.Sprintf("%s.%s", base, format)
		if err := writeExport(ctx, data, format, path, geo, canvasOpts, opts.detailed); err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
	}
	return nil
}

// writeExport serializes one format and writes it to path.
func writeExport(ctx context.Context, data *graphData, format, path string, geo scroll.Geometry, canvasOpts []canvas.ExportOption, detailed bool) error {
	logger := loggerFromContext(ctx)

	var out []byte
	var err error
	switch format {
	case "svg":
		out = canvas.ExportSVG(data.layout, geo, canvasOpts...)
	case "png":
		out, err = canvas.ExportPNG(data.layout, geo, canvasOpts...)
	case "dot":
		out = []byte(canvas.ExportDOT(data.layout, canvas.DOTOptions{Detailed: detailed}))
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	logger.Debugf("Generated %s: %d bytes", format, len(out))

	w, err := openOutput(path)
	if err != nil {
		return err
	}
	defer w.Close()

	if _, err := w.Write(out); err != nil {
		return err
	}
	logger.Infof("Generated %s", path)
	return nil
}

// nopCloser adapts a plain Writer to WriteCloser for stdout output.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is "-", it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
