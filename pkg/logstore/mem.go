package logstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/observability"
)

// MemStore is an in-process [Store] with the same query semantics as
// [Mongo]. It backs tests, the generator and servers started without a
// database.
type MemStore struct {
	mu      sync.RWMutex
	entries []Entry
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Len returns the number of stored entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemStore) Sessions(ctx context.Context, f SessionFilter) ([]SessionInfo, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := make(map[string]int)
	var out []SessionInfo
	for i := range s.entries {
		e := &s.entries[i]
		if f.Host != "" && e.Host() != f.Host {
			continue
		}
		j, ok := idx[e.Session.ID]
		if !ok {
			j = len(out)
			idx[e.Session.ID] = j
			out = append(out, SessionInfo{ID: e.Session.ID, TStart: e.Session.TStart})
		}
		out[j].NumLogEntries++
	}
	slices.SortStableFunc(out, func(a, b SessionInfo) int {
		switch {
		case a.TStart > b.TStart:
			return -1
		case a.TStart < b.TStart:
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
	observability.Store().OnQuery(ctx, "sessions", len(out), time.Since(start), nil)
	return out, nil
}

func (s *MemStore) Entries(ctx context.Context, sessionID string, since float64) ([]Entry, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	type timed struct {
		t float64
		e Entry
	}
	var sel []timed
	for _, e := range s.entries {
		if e.Session.ID != sessionID {
			continue
		}
		t, ok := e.Time()
		if since > 0 && (!ok || t <= since) {
			continue
		}
		sel = append(sel, timed{t, e})
	}
	slices.SortStableFunc(sel, func(a, b timed) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		default:
			return 0
		}
	})
	out := make([]Entry, len(sel))
	for i, v := range sel {
		out[i] = v.e
	}
	observability.Store().OnQuery(ctx, "entries", len(out), time.Since(start), nil)
	return out, nil
}

func (s *MemStore) SessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &SessionStats{}
	var durs []float64
	for i := range s.entries {
		e := &s.entries[i]
		if e.Session.ID != sessionID {
			continue
		}
		st.Entries++
		if d, ok := e.Duration(); ok {
			durs = append(durs, d)
		}
	}
	if st.Entries == 0 {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", sessionID)
	}
	st.Invocations = len(durs)
	if len(durs) > 0 {
		st.MaxDuration = floats.Max(durs)
		st.SumDuration = floats.Sum(durs)
		st.AvgDuration = stat.Mean(durs, nil)
		st.SDDuration = sampleSD(durs)
	}
	observability.Store().OnQuery(ctx, "session_stats", 1, 0, nil)
	return st, nil
}

func (s *MemStore) TaskTypeStats(ctx context.Context, sessionID string) ([]TaskTypeStats, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string][]float64)
	for i := range s.entries {
		e := &s.entries[i]
		if e.Session.ID != sessionID {
			continue
		}
		if d, ok := e.Duration(); ok {
			groups[e.Data.LamName] = append(groups[e.Data.LamName], d)
		}
	}
	out := make([]TaskTypeStats, 0, len(groups))
	for name, durs := range groups {
		out = append(out, TaskTypeStats{
			TaskType:    name,
			Invocations: len(durs),
			MinDuration: floats.Min(durs),
			MaxDuration: floats.Max(durs),
			SumDuration: floats.Sum(durs),
			AvgDuration: stat.Mean(durs, nil),
			SDDuration:  sampleSD(durs),
		})
	}
	slices.SortFunc(out, func(a, b TaskTypeStats) int { return strings.Compare(a.TaskType, b.TaskType) })
	observability.Store().OnQuery(ctx, "task_type_stats", len(out), 0, nil)
	return out, nil
}

func (s *MemStore) TaskDurations(ctx context.Context, q DurationsQuery) ([]TaskDurations, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string]*TaskDurations)
	ms := make(map[string][]float64)
	for i := range s.entries {
		e := &s.entries[i]
		if len(q.Sessions) > 0 && !slices.Contains(q.Sessions, e.Session.ID) {
			continue
		}
		d, ok := e.Duration()
		if !ok {
			continue
		}
		name := e.Data.LamName
		g := groups[name]
		if g == nil {
			g = &TaskDurations{TaskType: name}
			groups[name] = g
		}
		g.Count++
		g.Samples = append(g.Samples, DurationSample{SessionID: e.Session.ID, Duration: d})
		ms[name] = append(ms[name], e.Data.Info.TDur)
	}

	out := make([]TaskDurations, 0, len(groups))
	for name, g := range groups {
		if g.Count < q.minCount() {
			continue
		}
		g.Mean = stat.Mean(ms[name], nil)
		g.SD = sampleSD(ms[name])
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b TaskDurations) int { return strings.Compare(a.TaskType, b.TaskType) })
	observability.Store().OnQuery(ctx, "task_durations", len(out), 0, nil)
	return out, nil
}

func (s *MemStore) Insert(ctx context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	observability.Store().OnQuery(ctx, "insert", len(entries), 0, nil)
	return nil
}

func (s *MemStore) Close(context.Context) error { return nil }

// sampleSD matches $stdDevSamp, which yields null (decoded as 0) below two
// samples.
func sampleSD(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
