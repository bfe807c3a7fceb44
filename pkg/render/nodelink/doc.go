// Package nodelink renders laid-out workflows as Graphviz node-link
// diagrams.
//
// # Usage
//
// Convert a layout to DOT format, then render it:
//
//	dot := nodelink.ToDOT(res, store, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Nodes are filled with the colour of their task type, and the rows found
// by [layout.Compute] are pinned with rank=same groups.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering. PDF output goes through [render.ToPDF] and needs
// rsvg-convert on the PATH.
package nodelink
