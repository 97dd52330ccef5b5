package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitscape/gitscape/pkg/avatar"
	"github.com/gitscape/gitscape/pkg/cache"
	"github.com/gitscape/gitscape/pkg/canvas"
	"github.com/gitscape/gitscape/pkg/commit"
	"github.com/gitscape/gitscape/pkg/config"
	"github.com/gitscape/gitscape/pkg/gitsource"
	"github.com/gitscape/gitscape/pkg/httputil"
	"github.com/gitscape/gitscape/pkg/lane"
	"github.com/gitscape/gitscape/pkg/layoutsvc"
	"github.com/gitscape/gitscape/pkg/scroll"
)

// defaultGeometry is the pixel configuration used when the preference file
// carries no override.
var defaultGeometry = scroll.Geometry{
	LaneWidth: 24,
	RowHeight: 44,
	OffsetX:   20,
	OffsetY:   30,
}

// repoOpts holds the flags shared by every command that reads a repository.
type repoOpts struct {
	limit       int    // number of commits to load (0 = command default)
	allBranches bool   // walk all refs instead of HEAD only
	optimized   bool   // dense row packing
	theme       string // "dark", "light", or "" for the preference file
}

// addRepoFlags registers the shared repository flags on a command.
func addRepoFlags(cmd *cobra.Command, opts *repoOpts, defaultLimit int) {
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", defaultLimit, "number of commits to load")
	cmd.Flags().BoolVar(&opts.allBranches, "all", false, "include commits from all branches")
	cmd.Flags().BoolVar(&opts.optimized, "optimized", false, "use dense row packing")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "color theme: dark (default), light")
}

// repoArg resolves the optional positional repository argument, defaulting to
// the current directory.
func repoArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// graphData is a loaded and laid-out commit window, ready for any of the
// output surfaces.
type graphData struct {
	source *gitsource.Repo
	refs   map[string][]commit.RefInfo
	layout lane.Layout
	result layoutsvc.Result
}

// loadGraph opens the repository, loads the requested window, and computes
// the layout. All commands funnel through here so flags behave identically.
func loadGraph(ctx context.Context, path string, opts *repoOpts) (*graphData, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	src, err := gitsource.Open(path)
	if err != nil {
		return nil, err
	}

	commits, err := src.Commits(ctx, opts.limit, 0, opts.allBranches)
	if err != nil {
		return nil, err
	}
	refs, err := src.RefsByCommit(ctx)
	if err != nil {
		return nil, err
	}

	res := layoutsvc.Compute(commits, layoutsvc.Options{
		Optimized: opts.optimized,
		Logger:    logger,
	})
	prog.done(fmt.Sprintf("Loaded %d commits across %d lanes", res.Metrics.NodeCount, res.Metrics.MaxLane+1))

	return &graphData{
		source: src,
		refs:   refs,
		layout: res.Layout,
		result: res,
	}, nil
}

// resolveTheme picks the palette from the --theme flag, falling back to the
// preference file, and applies any saved style variable overrides.
func resolveTheme(name string) (canvas.Theme, scroll.Geometry, error) {
	prefs := loadPrefs()
	if name == "" {
		name = prefs.Theme
	}

	var base canvas.Theme
	switch name {
	case "", "dark":
		base = canvas.DarkTheme()
	case "light":
		base = canvas.LightTheme()
	default:
		return canvas.Theme{}, scroll.Geometry{}, fmt.Errorf("unknown theme: %s (must be 'dark' or 'light')", name)
	}

	geo := defaultGeometry
	if prefs.Geometry.LaneWidth > 0 {
		geo.LaneWidth = prefs.Geometry.LaneWidth
	}
	if prefs.Geometry.RowHeight > 0 {
		geo.RowHeight = prefs.Geometry.RowHeight
	}
	return canvas.ThemeFromVars(base, prefs.StyleVars), geo, nil
}

// layoutOIDs collects the oids present in a layout, for batched stat fetches.
func layoutOIDs(l lane.Layout) []string {
	oids := make([]string, 0, len(l.Nodes))
	for oid := range l.Nodes {
		oids = append(oids, oid)
	}
	return oids
}

// loadPrefs reads the preference file, degrading to defaults when it is
// missing or unreadable. The CLI never fails on a bad preference file.
func loadPrefs() *config.Prefs {
	store, err := config.NewStore("")
	if err != nil {
		return config.Default()
	}
	prefs, err := store.Load()
	if err != nil {
		return config.Default()
	}
	return prefs
}

// newAvatarLoader builds the avatar loader for interactive hosts, backed by
// an on-disk cache under the user cache directory. A cache setup failure
// degrades to in-memory caching rather than failing the command.
func newAvatarLoader(onLoad func(email string)) *avatar.Loader {
	var disk cache.Cache
	if dir, err := os.UserCacheDir(); err == nil {
		if fc, err := cache.NewFileCache(filepath.Join(dir, "gitscape", "avatars")); err == nil {
			disk = fc
		}
	}
	return avatar.NewLoader(httputil.NewClient(10*time.Second), disk, cache.NewDefaultKeyer(), onLoad)
}
