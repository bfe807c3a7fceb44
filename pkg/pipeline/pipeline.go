// Package pipeline ties parsing, layout, reconstruction and rendering
// together for the CLI and the HTTP server.
//
// # Stages
//
// Workflow files go through parse → layout → render:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.LayoutFile(ctx, "genome.dax", pipeline.Options{Formats: []render.Format{render.SVG}})
//	svg := res.Artifacts[render.SVG]
//
// Log sessions go through fetch → decode → reconstruct → render:
//
//	view := pipeline.SessionView{SessionID: "20160831T122313+0000"}
//	load, err := runner.SessionLoad(ctx, store, view)
//	png, err := runner.RenderLoad(ctx, load, render.PNG, render.Size{})
//
// Everything a dashboard used to keep in global state (the current session,
// the stacking order, the colour palette) travels in a [SessionView].
//
// # Caching
//
// Derived results are cached through the [cache.Cache] given to
// [NewRunner]. Layout keys hash the workflow file content; series keys
// include the number of log entries, so a session that is still growing
// is recomputed.
package pipeline

import (
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/render"
	"github.com/matzehuels/wflens/pkg/render/dagplot"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultVizType is the default workflow visualization.
	DefaultVizType = VizPlot

	// DefaultMinSamples is the minimum number of finished invocations a task
	// type needs for a duration chart.
	DefaultMinSamples = 2
)

// Visualization types for workflow layouts.
const (
	// VizPlot draws coloured circles at the computed coordinates.
	VizPlot = "plot"
	// VizNodelink hands the rows to Graphviz.
	VizNodelink = "nodelink"
)

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizPlot:     true,
	VizNodelink: true,
}

// Options configures workflow layout and rendering.
type Options struct {
	// Dist is the row and column spacing. Zero means layout.DefaultDist.
	Dist float64
	// HalfWidth clips drawn rows to [-HalfWidth, HalfWidth].
	HalfWidth float64
	// Width of drawn charts in inches.
	Width float64
	// VizType selects VizPlot or VizNodelink.
	VizType string
	// Formats lists the artifacts to render. Empty renders nothing.
	Formats []render.Format
	// Palette colours task types in first-seen order. Empty hashes task
	// names to colours, which keeps colours stable across files.
	Palette []string
	// Detailed adds IDs and positions to node-link labels.
	Detailed bool
	// Refresh bypasses cached results.
	Refresh bool
}

// ValidateAndSetDefaults fills in defaults and checks the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Dist <= 0 {
		o.Dist = layout.DefaultDist
	}
	if o.HalfWidth <= 0 {
		o.HalfWidth = dagplot.DefaultHalfWidth
	}
	if o.Width <= 0 {
		o.Width = dagplot.DefaultWidth
	}
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	return ValidateFormats(o.VizType, o.Formats)
}

// ValidateVizType checks a visualization type name.
func ValidateVizType(v string) error {
	if !ValidVizTypes[v] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid visualization type %q (want plot or nodelink)", v)
	}
	return nil
}

// ValidateFormats checks that every format can be produced by the given
// visualization type.
func ValidateFormats(vizType string, formats []render.Format) error {
	for _, f := range formats {
		switch {
		case f == render.JSON, f.IsImage():
		case f == render.DOT && vizType == VizNodelink:
		default:
			return errors.New(errors.ErrCodeUnsupported, "format %q is not available for %s output", f, vizType)
		}
	}
	return nil
}
