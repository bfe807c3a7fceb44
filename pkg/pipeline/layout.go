package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/matzehuels/wflens/pkg/cache"
	"github.com/matzehuels/wflens/pkg/dag"
	"github.com/matzehuels/wflens/pkg/dax"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/observability"
	"github.com/matzehuels/wflens/pkg/palette"
	"github.com/matzehuels/wflens/pkg/render"
	"github.com/matzehuels/wflens/pkg/render/sink"
)

// DAXPatterns are the file name patterns [Runner.LayoutDir] picks up.
var DAXPatterns = []string{"*.dax", "*.dax.xml"}

// LayoutResult is a laid-out workflow file.
type LayoutResult struct {
	Source    string
	Workflow  *dax.Workflow
	Layout    *layout.Result
	Store     layout.Store
	Artifacts map[render.Format][]byte
	// ContentHash identifies the file content.
	ContentHash string
	CacheHit    bool
	Stats       LayoutStats
}

// LayoutStats records sizes and timings of one layout run.
type LayoutStats struct {
	Jobs       int
	Rows       int
	Edges      int
	Crossings  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// LayoutFile parses a DAX file, lays it out and renders opts.Formats.
//
// A cyclic workflow fails with GRAPH_CYCLE and a parent that is never
// declared as a job fails with MISSING_ATTRIBUTES. The underlying
// [*dag.CycleError] and [*layout.MissingAttrsError] stay reachable with
// errors.As.
func (r *Runner) LayoutFile(ctx context.Context, path string, opts Options) (*LayoutResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "%s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	wf, err := dax.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(codeOr(err, errors.ErrCodeInvalidFormat), err, "%s", path)
	}

	res := &LayoutResult{
		Source:      path,
		Workflow:    wf,
		ContentHash: cache.Hash(data),
		Artifacts:   make(map[render.Format][]byte),
	}
	start := time.Now()
	key := r.Keyer.LayoutKey(res.ContentHash, cache.LayoutKeyOpts{Dist: opts.Dist})
	if cached, ok := r.cachedLayout(ctx, key, opts); ok {
		res.Layout, res.Store, res.CacheHit = cached.result, cached.store, true
	} else {
		res.Layout, res.Store, err = r.computeLayout(ctx, path, wf, opts)
		if err != nil {
			return nil, err
		}
		if doc, err := json.Marshal(sink.LayoutDocument(res.Layout, res.Store)); err == nil {
			r.save(ctx, "layout", key, doc, cache.LayoutTTL)
		}
	}
	recolor(res.Store, opts.Palette)
	res.Stats = LayoutStats{
		Jobs:       len(wf.Jobs),
		Rows:       len(res.Layout.Rows),
		Edges:      len(res.Layout.Edges),
		Crossings:  dag.CountCrossings(res.Layout.Rows, res.Layout.Edges),
		LayoutTime: time.Since(start),
	}

	start = time.Now()
	for _, f := range opts.Formats {
		out, err := r.RenderLayout(ctx, res, f, opts)
		if err != nil {
			return nil, err
		}
		res.Artifacts[f] = out
	}
	res.Stats.RenderTime = time.Since(start)

	r.Logger.Debug("laid out workflow",
		"file", path,
		"jobs", res.Stats.Jobs,
		"rows", res.Stats.Rows,
		"crossings", res.Stats.Crossings,
		"cached", res.CacheHit,
		"duration", res.Stats.LayoutTime)
	return res, nil
}

func (r *Runner) computeLayout(ctx context.Context, path string, wf *dax.Workflow, opts Options) (*layout.Result, layout.Store, error) {
	g, err := wf.Graph()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "%s", path)
	}
	store := wf.Attrs(colorFunc(opts.Palette))

	observability.Pipeline().OnLayoutStart(ctx, path, g.Len())
	start := time.Now()
	res, err := layout.Compute(g, store, layout.Options{Dist: opts.Dist})
	rows := 0
	if res != nil {
		rows = len(res.Rows)
	}
	observability.Pipeline().OnLayoutComplete(ctx, path, rows, time.Since(start), err)

	var cycle *dag.CycleError
	var missing *layout.MissingAttrsError
	switch {
	case stderrors.As(err, &cycle):
		return nil, nil, errors.Wrap(errors.ErrCodeGraphCycle, err, "%s", path)
	case stderrors.As(err, &missing):
		return nil, nil, errors.Wrap(errors.ErrCodeMissingAttrs, err, "%s", path)
	case err != nil:
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "%s", path)
	}
	return res, store, nil
}

type cachedLayout struct {
	result *layout.Result
	store  layout.Store
}

func (r *Runner) cachedLayout(ctx context.Context, key string, opts Options) (cachedLayout, bool) {
	if opts.Refresh {
		return cachedLayout{}, false
	}
	data, ok := r.lookup(ctx, "layout", key)
	if !ok {
		return cachedLayout{}, false
	}
	var doc sink.LayoutDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return cachedLayout{}, false
	}
	res := &layout.Result{
		Rows: doc.Rows,
		Dist: doc.Dist,
		MinX: doc.MinX,
		MaxX: doc.MaxX,
		MaxY: doc.MaxY,
	}
	for _, e := range doc.Edges {
		res.Edges = append(res.Edges, dag.Edge{From: e.From, To: e.To})
	}
	store := make(layout.Store, len(doc.Nodes))
	for _, n := range doc.Nodes {
		store[n.ID] = &layout.Attrs{Name: n.Name, Color: n.Color, X: n.X, Y: n.Y, Row: n.Row, Col: n.Col}
	}
	return cachedLayout{result: res, store: store}, true
}

// colorFunc colours task names from pal in first-seen order, or by hash
// when pal is empty.
func colorFunc(pal []string) func(string) string {
	if len(pal) == 0 {
		return palette.Hashed
	}
	a := &palette.Assigner{Palette: pal}
	return a.Color
}

// recolor applies the palette to a cached store in row order, matching the
// order the jobs were first coloured in.
func recolor(store layout.Store, pal []string) {
	ids := make([]string, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		sa, sb := store[a], store[b]
		if sa.Row != sb.Row {
			return sa.Row - sb.Row
		}
		return sa.Col - sb.Col
	})
	color := colorFunc(pal)
	for _, id := range ids {
		store[id].Color = color(store[id].Name)
	}
}

// FileError is one file a batch could not process.
type FileError struct {
	Path string
	Err  error
}

// BatchSummary reports the outcome of [Runner.LayoutDir].
type BatchSummary struct {
	Total  int
	OK     int
	Failed []FileError
}

// LayoutDir lays out every DAX file in dir (or the single file dir names).
// A failing file is logged, recorded in the summary and skipped; fn is
// called for every successful layout and may stop the batch by returning an
// error. Files are processed in lexical order.
func (r *Runner) LayoutDir(ctx context.Context, dir string, opts Options, fn func(*LayoutResult) error) (*BatchSummary, error) {
	files, err := FindDAX(dir)
	if err != nil {
		return nil, err
	}
	sum := &BatchSummary{Total: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, errors.Wrap(errors.ErrCodeTimeout, err, "layout %s", dir)
		}
		res, err := r.LayoutFile(ctx, path, opts)
		if err != nil {
			r.Logger.Warn("skipping workflow", "file", path, "err", err)
			sum.Failed = append(sum.Failed, FileError{Path: path, Err: err})
			continue
		}
		sum.OK++
		if fn != nil {
			if err := fn(res); err != nil {
				return sum, err
			}
		}
	}
	r.Logger.Info("laid out workflows", "dir", dir, "ok", sum.OK, "failed", len(sum.Failed))
	return sum, nil
}

// FindDAX returns the DAX files in dir, sorted. A path to a regular file is
// returned as is.
func FindDAX(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "%s does not exist", dir)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}
	var files []string
	for _, pat := range DAXPatterns {
		m, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "glob %s", dir)
		}
		files = append(files, m...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
