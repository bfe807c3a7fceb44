package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/wflens/pkg/cache"
	"github.com/matzehuels/wflens/pkg/dax"
	"github.com/matzehuels/wflens/pkg/logstore"
	"github.com/matzehuels/wflens/pkg/stats"
)

// DurationsResult holds per-task-type duration distributions.
type DurationsResult struct {
	Tasks map[string]*stats.DurationSummary `json:"tasks"`
	// Order lists the task types alphabetically.
	Order    []string `json:"order"`
	CacheHit bool     `json:"-"`
}

// Durations summarizes the finished invocation durations of every task
// type with at least minSamples observations across the given sessions
// (all sessions when empty).
func (r *Runner) Durations(ctx context.Context, st logstore.Store, sessions []string, minSamples int) (*DurationsResult, error) {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	all, err := st.Sessions(ctx, logstore.SessionFilter{})
	if err != nil {
		return nil, err
	}
	entries := 0
	for _, s := range all {
		entries += s.NumLogEntries
	}
	// Restricted queries are not cached; the entry total covers all sessions.
	key := r.Keyer.DurationsKey(cache.DurationsKeyOpts{MinSamples: minSamples, Entries: entries})
	if len(sessions) == 0 {
		if data, ok := r.lookup(ctx, "durations", key); ok {
			var res DurationsResult
			if err := json.Unmarshal(data, &res); err == nil {
				res.CacheHit = true
				return &res, nil
			}
		}
	}

	groups, err := st.TaskDurations(ctx, logstore.DurationsQuery{Sessions: sessions, MinCount: minSamples})
	if err != nil {
		return nil, err
	}
	res := &DurationsResult{Tasks: make(map[string]*stats.DurationSummary, len(groups))}
	for _, g := range groups {
		samples := make([]stats.Sample, len(g.Samples))
		for i, s := range g.Samples {
			samples[i] = stats.Sample{Label: s.SessionID, Seconds: s.Duration}
		}
		sum, err := stats.Durations(samples)
		if err != nil {
			r.Logger.Warn("skipping task type", "task", g.TaskType, "err", err)
			continue
		}
		res.Tasks[g.TaskType] = sum
		res.Order = append(res.Order, g.TaskType)
	}

	if len(sessions) == 0 {
		if data, err := json.Marshal(res); err == nil {
			r.save(ctx, "durations", key, data, cache.SessionTTL)
		}
	}
	return res, nil
}

// TaskStats clusters the jobs of every task type in a workflow by input
// size and summarizes runtime per cluster. Task types with fewer than
// stats.MinTaskSamples jobs are left out.
func TaskStats(wf *dax.Workflow) map[string][]stats.Cluster {
	out := make(map[string][]stats.Cluster)
	for name, samples := range wf.TaskData() {
		if len(samples) < stats.MinTaskSamples {
			continue
		}
		pts := make([]stats.Point, len(samples))
		for i, s := range samples {
			pts[i] = stats.Point{X: float64(s.InputBytes), Y: s.Runtime}
		}
		out[name] = stats.Clusters(pts)
	}
	return out
}
