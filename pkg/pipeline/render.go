package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/wflens/pkg/cache"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/observability"
	"github.com/matzehuels/wflens/pkg/render"
	"github.com/matzehuels/wflens/pkg/render/areaplot"
	"github.com/matzehuels/wflens/pkg/render/cdfplot"
	"github.com/matzehuels/wflens/pkg/render/dagplot"
	"github.com/matzehuels/wflens/pkg/render/nodelink"
	"github.com/matzehuels/wflens/pkg/render/sink"
	"github.com/matzehuels/wflens/pkg/stats"
)

// probeColors colour the load lines of [ProbeKeys].
var probeColors = []string{"#e31a1c", "#ff7f00", "#6a3d9a"}

// RenderLayout renders a laid-out workflow in one format. Images are cached
// by the content of the layout, so recolouring or resizing renders anew.
func (r *Runner) RenderLayout(ctx context.Context, lr *LayoutResult, f render.Format, opts Options) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := ValidateFormats(opts.VizType, []render.Format{f}); err != nil {
		return nil, err
	}
	title := lr.Workflow.Name
	doc, err := sink.RenderLayoutJSON(lr.Layout, lr.Store, sink.WithTitle(title), sink.WithSource(lr.Source))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	if f == render.JSON {
		return doc, nil
	}

	variant := opts.VizType
	if opts.Detailed {
		variant += "-detailed"
	}
	return r.renderCached(ctx, cache.Hash(doc), variant, f, render.Size{Width: opts.Width}, func() ([]byte, error) {
		if opts.VizType == VizNodelink {
			dot := nodelink.ToDOT(lr.Layout, lr.Store, nodelink.Options{Detailed: opts.Detailed})
			return nodelink.Render(ctx, dot, f)
		}
		return dagplot.Render(lr.Layout, lr.Store, dagplot.Options{
			HalfWidth: opts.HalfWidth,
			Width:     opts.Width,
			Title:     title,
		}, f)
	})
}

// RenderLoad renders a session's stacked chart. JSON output is the series
// document served by the HTTP API.
func (r *Runner) RenderLoad(ctx context.Context, load *LoadResult, f render.Format, size render.Size) ([]byte, error) {
	if f == render.JSON {
		return sink.RenderSeriesJSON(load.Series,
			sink.WithSession(load.View.SessionID),
			sink.WithTotal(load.Total))
	}
	if !f.IsImage() {
		return nil, errors.New(errors.ErrCodeUnsupported, "load charts cannot be written as %s", f)
	}
	data, err := json.Marshal(load)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode series")
	}
	return r.renderCached(ctx, cache.Hash(data), "load", f, size, func() ([]byte, error) {
		opts := areaplot.Options{
			Title: load.View.SessionID,
			Total: load.Total,
			Size:  size,
		}
		for i, p := range load.Probes {
			opts.Lines = append(opts.Lines, areaplot.Line{
				Name:   p.Name,
				Color:  probeColors[i%len(probeColors)],
				Points: p.Points,
			})
		}
		return areaplot.Render(load.Series, opts, f)
	})
}

// RenderDurations renders the duration chart of one task type.
func (r *Runner) RenderDurations(ctx context.Context, res *DurationsResult, taskType string, f render.Format, size render.Size) ([]byte, error) {
	sum := res.Tasks[taskType]
	if sum == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no durations for task type %q", taskType)
	}
	if f == render.JSON {
		return sink.RenderDurationsJSON(map[string]*stats.DurationSummary{taskType: sum})
	}
	if !f.IsImage() {
		return nil, errors.New(errors.ErrCodeUnsupported, "duration charts cannot be written as %s", f)
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode durations")
	}
	return r.renderCached(ctx, cache.Hash(append([]byte(taskType), data...)), "cdf", f, size, func() ([]byte, error) {
		return cdfplot.Render(taskType, sum, cdfplot.Options{Size: size}, f)
	})
}

func (r *Runner) renderCached(ctx context.Context, contentHash, variant string, f render.Format, size render.Size, draw func() ([]byte, error)) ([]byte, error) {
	key := r.Keyer.ArtifactKey(contentHash, cache.ArtifactKeyOpts{
		Format: variant + "." + string(f),
		Width:  size.Width,
		Height: size.Height,
	})
	if data, ok := r.lookup(ctx, "artifact", key); ok {
		return data, nil
	}
	start := time.Now()
	out, err := draw()
	observability.Pipeline().OnRenderComplete(ctx, string(f), len(out), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.save(ctx, "artifact", key, out, cache.ArtifactTTL)
	return out, nil
}
