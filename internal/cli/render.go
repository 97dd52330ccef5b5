package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gitscape/gitscape/pkg/canvas"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	repoOpts
	output   string // output file path
	detailed bool   // include row/lane coordinates in node labels
}

// newRenderCmd creates the render command. Unlike export, which serializes
// the engine's own layout, render hands the DAG to an external Graphviz
// engine and keeps whatever arrangement it chooses. Useful for checking the
// lane layout against an independent opinion of the same graph.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [repo]",
		Short: "Render the commit DAG through Graphviz",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), repoArg(args), &opts)
		},
	}

	addRepoFlags(cmd, &opts.repoOpts, 200)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output SVG file")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include row/lane coordinates in node labels")

	return cmd
}

// runRender loads the graph, converts it to DOT, and rasterizes it with the
// embedded Graphviz engine.
func runRender(ctx context.Context, repo string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", repo)

	data, err := loadGraph(ctx, repo, &opts.repoOpts)
	if err != nil {
		return err
	}

	dot := canvas.ExportDOT(data.layout, canvas.DOTOptions{Detailed: opts.detailed})

	spinner := newSpinnerWithContext(ctx, "Running Graphviz layout...")
	spinner.Start()
	svg, err := canvas.RenderDOT(ctx, dot)
	spinner.Stop()
	if err != nil {
		return err
	}
	logger.Debugf("Generated SVG: %d bytes", len(svg))

	path := opts.output
	if path == "" {
		path = basePath("", repo) + ".svg"
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(svg); err != nil {
		return err
	}
	logger.Infof("Generated %s", path)
	return nil
}
