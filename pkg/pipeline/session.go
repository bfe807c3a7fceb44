package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/matzehuels/wflens/pkg/cache"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/interval"
	"github.com/matzehuels/wflens/pkg/logstore"
	"github.com/matzehuels/wflens/pkg/observability"
	"github.com/matzehuels/wflens/pkg/stats"
)

// ProbeKeys are the entry metrics drawn as host load lines.
var ProbeKeys = []string{"load_min1", "load_min5", "load_min15"}

// SessionView is everything a load chart depends on besides the log
// itself. It is passed explicitly into every call.
type SessionView struct {
	SessionID string `json:"session_id"`
	// Order is the stacking order, bottom first. Task types missing from
	// it are stacked on top in first-seen order.
	Order []string `json:"order,omitempty"`
	// Palette colours task types in first-seen order. Empty means
	// palette.Paired12.
	Palette []string `json:"palette,omitempty"`
	// Since only reads entries logged after this unix time.
	Since float64 `json:"since,omitempty"`
}

// Validate checks the session id.
func (v SessionView) Validate() error {
	return errors.ValidateSessionID(v.SessionID)
}

// Probe is a host metric sampled at invocation starts, with missing values
// filled forward.
type Probe struct {
	Name   string           `json:"name"`
	Points []interval.Point `json:"points"`
}

// LoadResult is the reconstructed running-task chart of one session.
type LoadResult struct {
	View   SessionView      `json:"view"`
	Series *interval.Result `json:"series"`
	Total  []interval.Point `json:"total"`
	Probes []Probe          `json:"probes,omitempty"`
	// Entries is the number of log entries read.
	Entries   int  `json:"entries"`
	Ignored   int  `json:"ignored"`
	Dropped   int  `json:"dropped"`
	Unmatched int  `json:"unmatched"`
	CacheHit  bool `json:"-"`
}

// SessionLoad reads a session from the store and reconstructs its stacked
// running-task chart. Unknown sessions fail with SESSION_NOT_FOUND.
func (r *Runner) SessionLoad(ctx context.Context, st logstore.Store, view SessionView) (*LoadResult, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	sstats, err := st.SessionStats(ctx, view.SessionID)
	if err != nil {
		return nil, err
	}

	key := r.Keyer.SeriesKey(view.SessionID, cache.SeriesKeyOpts{
		Order:   view.Order,
		Palette: view.Palette,
		Entries: sstats.Entries,
	})
	useCache := view.Since <= 0
	if useCache {
		if data, ok := r.lookup(ctx, "series", key); ok {
			var res LoadResult
			if err := json.Unmarshal(data, &res); err == nil {
				res.CacheHit = true
				return &res, nil
			}
		}
	}

	entries, err := st.Entries(ctx, view.SessionID, view.Since)
	if err != nil {
		return nil, err
	}
	res := Reconstruct(ctx, view, entries)
	r.Logger.Debug("reconstructed session",
		"session", view.SessionID,
		"entries", res.Entries,
		"series", len(res.Series.Series),
		"dropped", res.Dropped,
		"unmatched", res.Unmatched)
	if res.Dropped > 0 {
		r.Logger.Warn("dropped log entries without a usable timestamp or status",
			"session", view.SessionID,
			"dropped", res.Dropped)
	}

	if useCache {
		if data, err := json.Marshal(res); err == nil {
			r.save(ctx, "series", key, data, cache.SessionTTL)
		}
	}
	return res, nil
}

// Reconstruct decodes log entries and rebuilds the stacked chart for view.
// It needs no store, so it also serves entries read from files.
func Reconstruct(ctx context.Context, view SessionView, entries []logstore.Entry) *LoadResult {
	dec := logstore.Decode(entries)
	observability.Pipeline().OnReconstructStart(ctx, view.SessionID, len(dec.Events))
	start := time.Now()
	series := interval.Reconstruct(dec.Events, view.Order, view.Palette)
	observability.Pipeline().OnReconstructComplete(ctx, view.SessionID, len(series.Series), time.Since(start), nil)

	return &LoadResult{
		View:      view,
		Series:    series,
		Total:     interval.RunningTotal(dec.Events),
		Probes:    Probes(entries),
		Entries:   len(entries),
		Ignored:   dec.Ignored,
		Dropped:   dec.Dropped,
		Unmatched: dec.Unmatched,
	}
}

// Probes extracts the ProbeKeys metrics from invocation start entries.
// Keys no entry carries are left out. NA values are filled forward.
func Probes(entries []logstore.Entry) []Probe {
	var out []Probe
	for _, key := range ProbeKeys {
		var xs, ys []float64
		seen := false
		for i := range entries {
			e := &entries[i]
			if e.Metrics == nil || !e.IsInvocation() || e.Kind() != interval.Start {
				continue
			}
			t, ok := e.Time()
			if !ok {
				continue
			}
			v, has := e.Metrics[key]
			if !has {
				continue
			}
			seen = true
			xs = append(xs, t)
			ys = append(ys, stats.ParseNA(v))
		}
		if !seen || allNaN(ys) {
			continue
		}
		ys = stats.FillForward(ys)
		p := Probe{Name: key, Points: make([]interval.Point, len(xs))}
		for i := range xs {
			p.Points[i] = interval.Point{X: xs[i], Y: ys[i]}
		}
		out = append(out, p)
	}
	return out
}

func allNaN(vs []float64) bool {
	for _, v := range vs {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
