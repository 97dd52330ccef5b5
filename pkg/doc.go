// Package pkg provides the core libraries for gitscape commit graph
// visualization.
//
// # Overview
//
// Gitscape turns a repository's commit DAG into a deterministic lane graph:
// every commit gets a (row, lane) cell, edges connect children to parents,
// and the same window of history always produces the same picture. The pkg
// directory is organized into three main areas:
//
//  1. Engine - layout and geometry ([lane], [layoutsvc], [scroll], [spatial])
//  2. Surfaces - rendering and export ([canvas], [avatar], [view])
//  3. Infrastructure - repository access and ambient concerns ([gitsource],
//     [commit], [cache], [config], [errors], [httputil], [observability])
//
// # Architecture
//
// The typical data flow through gitscape:
//
//	Repository (go-git)
//	         ↓
//	    [gitsource] package (commits, refs, stats)
//	         ↓
//	    [lane] / [layoutsvc] packages (rows, lanes, edges)
//	         ↓
//	    [scroll] + [spatial] packages (viewport, hit testing)
//	         ↓
//	    [canvas] package (dirty-flag renderer, SVG/PNG/DOT export)
//
// Hosts embed [view.GraphView], which wires the stages together behind a
// single-goroutine controller.
//
// # Quick Start
//
// Load a window of history and export it:
//
//	import (
//	    "context"
//	    "github.com/gitscape/gitscape/pkg/canvas"
//	    "github.com/gitscape/gitscape/pkg/gitsource"
//	    "github.com/gitscape/gitscape/pkg/layoutsvc"
//	    "github.com/gitscape/gitscape/pkg/scroll"
//	)
//
//	src, err := gitsource.Open(".")
//	if err != nil {
//	    return err
//	}
//	commits, err := src.Commits(context.Background(), 500, 0, false)
//	if err != nil {
//	    return err
//	}
//	res := layoutsvc.Compute(commits, layoutsvc.Options{})
//	geo := scroll.Geometry{LaneWidth: 24, RowHeight: 44, OffsetX: 20, OffsetY: 30}
//	svg := canvas.ExportSVG(res.Layout, geo)
package pkg
