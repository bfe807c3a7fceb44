// Package areaplot draws the stacked running-task chart of one session.
package areaplot

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/interval"
	"github.com/matzehuels/wflens/pkg/palette"
	"github.com/matzehuels/wflens/pkg/render"
)

// Line is an extra trace drawn over the bands, such as a host load probe.
type Line struct {
	Name   string
	Color  string
	Points []interval.Point
}

// Options configures [Plot] and [Render].
type Options struct {
	Title string
	// Total, when set, is drawn as a black outline over the bands.
	Total []interval.Point
	// Lines are drawn after the bands and the total.
	Lines  []Line
	Size   render.Size
	XLabel string
	YLabel string
}

// Plot builds the chart. Empty series are left out of the legend.
func Plot(res *interval.Result, opts Options) (*plot.Plot, error) {
	if res == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no series to draw")
	}
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = orDefault(opts.XLabel, "time [s]")
	p.Y.Label.Text = orDefault(opts.YLabel, "running tasks")
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	drawn := 0
	for _, s := range res.Series {
		if s.Empty() {
			continue
		}
		pts := make(plotter.XYs, len(s.Xs))
		for i := range s.Xs {
			pts[i] = plotter.XY{X: s.Xs[i], Y: s.Ys[i]}
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "series %s", s.TaskType)
		}
		poly.Color = palette.Parse(s.Color)
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(s.TaskType, poly)
		drawn++
	}

	if len(opts.Total) > 0 {
		if err := addLine(p, "total", "#000000", opts.Total, vg.Points(0.5)); err != nil {
			return nil, err
		}
	}
	for _, l := range opts.Lines {
		if len(l.Points) == 0 {
			continue
		}
		if err := addLine(p, l.Name, l.Color, l.Points, vg.Points(1)); err != nil {
			return nil, err
		}
	}

	if drawn == 0 && len(opts.Total) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	} else {
		p.Y.Min = 0
	}
	return p, nil
}

// Render draws res in the given image format.
func Render(res *interval.Result, opts Options, f render.Format) ([]byte, error) {
	p, err := Plot(res, opts)
	if err != nil {
		return nil, err
	}
	return render.WritePlot(p, opts.Size, f)
}

func addLine(p *plot.Plot, name, hex string, pts []interval.Point, width vg.Length) error {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "line %s", name)
	}
	line.LineStyle.Width = width
	line.LineStyle.Color = lineColor(hex)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

func lineColor(hex string) color.Color {
	if hex == "" {
		return color.Black
	}
	return palette.Parse(hex)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
