// Package dagplot draws a laid-out workflow graph: one filled circle per
// job, coloured by task type, with thin edges from each parent to its
// children one row above.
package dagplot

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/wflens/pkg/dag"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/palette"
	"github.com/matzehuels/wflens/pkg/render"
)

// Drawing defaults, in layout units.
const (
	DefaultRadius    = 2.0
	DefaultHalfWidth = 50.0
	DefaultWidth     = 10.0 // inches
	circleSegments   = 24
)

// Options configures [Plot] and [Render].
type Options struct {
	// Radius of the node circles. Edges attach Radius above and below
	// node centres.
	Radius float64
	// HalfWidth clips the x range to [-HalfWidth, HalfWidth] so very wide
	// rows do not shrink the rest of the graph.
	HalfWidth float64
	// Width of the drawing in inches; the height follows from the data
	// aspect ratio.
	Width float64
	// Label returns the text drawn inside a node. Defaults to [ShortLabel].
	Label func(id string, a *layout.Attrs) string
	Title string
}

func (o Options) withDefaults() Options {
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	if o.HalfWidth <= 0 {
		o.HalfWidth = DefaultHalfWidth
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Label == nil {
		o.Label = ShortLabel
	}
	return o
}

// ShortLabel returns the first three characters of the node's name.
func ShortLabel(_ string, a *layout.Attrs) string {
	r := []rune(a.Name)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// Plot builds the chart for res, reading colours and coordinates from
// store. The returned size keeps one layout unit equally long on both axes.
func Plot(res *layout.Result, store layout.Store, opts Options) (*plot.Plot, render.Size, error) {
	if res == nil {
		return nil, render.Size{}, errors.New(errors.ErrCodeInvalidInput, "no layout to draw")
	}
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	p.HideAxes()

	for _, e := range res.Edges {
		from, to := store[e.From], store[e.To]
		if from == nil || to == nil {
			return nil, render.Size{}, &layout.MissingAttrsError{IDs: missingOf(e, store)}
		}
		line, err := plotter.NewLine(plotter.XYs{
			{X: from.X, Y: from.Y + opts.Radius},
			{X: to.X, Y: to.Y - opts.Radius},
		})
		if err != nil {
			return nil, render.Size{}, errors.Wrap(errors.ErrCodeInternal, err, "edge %s->%s", e.From, e.To)
		}
		line.LineStyle.Width = vg.Points(0.1)
		p.Add(line)
	}

	var labels plotter.XYLabels
	for _, row := range res.Rows {
		for _, id := range row {
			a := store[id]
			if a == nil {
				return nil, render.Size{}, &layout.MissingAttrsError{IDs: []string{id}}
			}
			circle, err := plotter.NewPolygon(circleAt(a.X, a.Y, opts.Radius))
			if err != nil {
				return nil, render.Size{}, errors.Wrap(errors.ErrCodeInternal, err, "node %s", id)
			}
			circle.Color = palette.Parse(a.Color)
			circle.LineStyle.Width = 0
			p.Add(circle)

			labels.XYs = append(labels.XYs, plotter.XY{X: a.X, Y: a.Y})
			labels.Labels = append(labels.Labels, opts.Label(id, a))
		}
	}
	if len(labels.Labels) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, render.Size{}, errors.Wrap(errors.ErrCodeInternal, err, "labels")
		}
		for i := range l.TextStyle {
			l.TextStyle[i].XAlign = text.XCenter
			l.TextStyle[i].YAlign = text.YCenter
			l.TextStyle[i].Font.Size = vg.Points(4)
		}
		p.Add(l)
	}

	p.X.Min = max(-opts.HalfWidth, res.MinX-res.Dist)
	p.X.Max = min(opts.HalfWidth, res.MaxX+res.Dist)
	p.Y.Min = -res.Dist
	p.Y.Max = res.MaxY + res.Dist

	aspect := (p.Y.Max - p.Y.Min) / (p.X.Max - p.X.Min)
	return p, render.Size{Width: opts.Width, Height: opts.Width * aspect}, nil
}

// Render draws res in the given image format.
func Render(res *layout.Result, store layout.Store, opts Options, f render.Format) ([]byte, error) {
	p, size, err := Plot(res, store, opts)
	if err != nil {
		return nil, err
	}
	return render.WritePlot(p, size, f)
}

func circleAt(x, y, r float64) plotter.XYs {
	pts := make(plotter.XYs, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = plotter.XY{X: x + r*math.Cos(a), Y: y + r*math.Sin(a)}
	}
	return pts
}

func missingOf(e dag.Edge, store layout.Store) []string {
	var ids []string
	if store[e.From] == nil {
		ids = append(ids, e.From)
	}
	if store[e.To] == nil {
		ids = append(ids, e.To)
	}
	return ids
}
