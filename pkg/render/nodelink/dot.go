package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the job ID and the row/column position to node labels.
	// When false, only the task name is shown.
	Detailed bool
}

// ToDOT converts a laid-out workflow to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Every layout row becomes a rank=same group so Graphviz keeps the levels
// computed by [layout.Compute]. Roots are drawn at the bottom, as in the
// chart drawn by dagplot.
func ToDOT(res *layout.Result, store layout.Store, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, fixedsize=false];\n")
	buf.WriteString("  edge [arrowsize=0.5];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	for _, row := range res.Rows {
		for _, id := range row {
			a := store[id]
			if a == nil {
				a = &layout.Attrs{Name: id}
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(id, a, opts.Detailed), ", "))
		}
	}

	buf.WriteString("\n")
	for _, row := range res.Rows {
		if len(row) < 2 {
			continue
		}
		quoted := make([]string, len(row))
		for i, id := range row {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}

	buf.WriteString("\n")
	for _, e := range res.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(id string, a *layout.Attrs, detailed bool) string {
	name := a.Name
	if name == "" {
		name = id
	}
	if !detailed {
		return name
	}
	return fmt.Sprintf("%s\n%s\nrow: %d col: %d", name, id, a.Row, a.Col)
}

func fmtAttrs(id string, a *layout.Attrs, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(id, a, detailed))}
	if a.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", a.Color))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderGraphviz(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG. Graphviz rasterizes the graph
// directly, so no external tools are needed.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderGraphviz(ctx, dot, graphviz.PNG)
}

// Render renders a DOT graph in the given format. DOT returns the source
// unchanged.
func Render(ctx context.Context, dot string, f render.Format) ([]byte, error) {
	switch f {
	case render.SVG:
		return RenderSVG(ctx, dot)
	case render.PNG:
		return RenderPNG(ctx, dot)
	case render.PDF:
		return RenderPDF(ctx, dot)
	case render.DOT:
		return []byte(dot), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "node-link diagrams cannot be written as %s", f)
}
