// Package cdfplot draws the empirical duration distribution of one task
// type, its quartiles and a fitted log-normal reference curve.
package cdfplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/palette"
	"github.com/matzehuels/wflens/pkg/render"
	"github.com/matzehuels/wflens/pkg/stats"
)

var (
	navy = color.RGBA{B: 0x80, A: 0xff}
	red  = color.RGBA{R: 0xff, A: 0xff}
)

// Options configures [Plot] and [Render].
type Options struct {
	Size render.Size
	// NoReference hides the fitted log-normal curve.
	NoReference bool
}

// Title returns the chart title for a task type with n observations.
func Title(taskType string, n int) string {
	return fmt.Sprintf("%s (%d observations)", taskType, n)
}

// Plot builds the chart for one task type.
func Plot(taskType string, sum *stats.DurationSummary, opts Options) (*plot.Plot, error) {
	if sum == nil || len(sum.ECDF) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no durations for %s", taskType)
	}
	p := plot.New()
	p.Title.Text = Title(taskType, sum.N)
	p.X.Label.Text = fmt.Sprintf("duration [%s]", sum.Scale.Name)
	p.Y.Label.Text = "P(X < x)"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	ecdf := make(plotter.XYs, len(sum.ECDF))
	for i, pt := range sum.ECDF {
		ecdf[i] = plotter.XY{X: pt.Value, Y: pt.P}
	}
	sc, err := plotter.NewScatter(ecdf)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ecdf")
	}
	sc.GlyphStyle.Color = palette.Parse(sum.Scale.Color)
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	quart := make(plotter.XYs, len(sum.Quartiles))
	for i, q := range sum.Quartiles {
		quart[i] = plotter.XY{X: q.Value, Y: q.P}
	}
	qs, err := plotter.NewScatter(quart)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "quartiles")
	}
	qs.GlyphStyle.Radius = vg.Points(4)
	qs.GlyphStyle.Shape = draw.RingGlyph{}
	qs.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		s := qs.GlyphStyle
		s.Color = navy
		if i == 1 {
			s.Color = red
		}
		return s
	}
	p.Add(qs)
	p.Legend.Add("quartiles", qs)

	if !opts.NoReference && len(sum.Reference) > 1 {
		ref := make(plotter.XYs, len(sum.Reference))
		for i, pt := range sum.Reference {
			ref[i] = plotter.XY{X: pt.Value, Y: pt.P}
		}
		line, err := plotter.NewLine(ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "reference")
		}
		line.LineStyle.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("log-normal fit", line)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// Render draws the chart in the given image format.
func Render(taskType string, sum *stats.DurationSummary, opts Options, f render.Format) ([]byte, error) {
	p, err := Plot(taskType, sum, opts)
	if err != nil {
		return nil, err
	}
	return render.WritePlot(p, opts.Size, f)
}
