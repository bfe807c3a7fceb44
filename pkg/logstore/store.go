package logstore

import (
	"context"
	"time"
)

// SessionInfo summarizes one session for listings.
type SessionInfo struct {
	ID            string  `bson:"_id" json:"id"`
	NumLogEntries int     `bson:"numLogEntries" json:"num_log_entries"`
	TStart        float64 `bson:"tstart" json:"tstart"`
}

// Started returns the session start time. tstart is logged in milliseconds.
func (s SessionInfo) Started() time.Time {
	return time.UnixMilli(int64(s.TStart))
}

// SessionStats aggregates the finished invocations of one session.
// Durations are in seconds.
type SessionStats struct {
	Entries     int     `bson:"entries" json:"entries"`
	Invocations int     `bson:"invocations" json:"invocations"`
	MaxDuration float64 `bson:"maxDuration" json:"max_duration"`
	SumDuration float64 `bson:"sumDuration" json:"sum_duration"`
	AvgDuration float64 `bson:"avgDuration" json:"avg_duration"`
	SDDuration  float64 `bson:"sdDuration" json:"sd_duration"`
}

// TaskTypeStats aggregates the finished invocations of one task type within
// a session. Durations are in seconds.
type TaskTypeStats struct {
	TaskType    string  `bson:"_id" json:"task_type"`
	Invocations int     `bson:"invocations" json:"invocations"`
	MinDuration float64 `bson:"minDuration" json:"min_duration"`
	MaxDuration float64 `bson:"maxDuration" json:"max_duration"`
	SumDuration float64 `bson:"sumDuration" json:"sum_duration"`
	AvgDuration float64 `bson:"avgDuration" json:"avg_duration"`
	SDDuration  float64 `bson:"sdDuration" json:"sd_duration"`
}

// DurationSample is one finished invocation.
type DurationSample struct {
	SessionID string  `bson:"session_id" json:"session_id"`
	Duration  float64 `bson:"duration" json:"duration"` // seconds
}

// TaskDurations collects the durations of one task type across sessions.
// Mean and SD are in milliseconds, as logged.
type TaskDurations struct {
	TaskType string           `bson:"_id" json:"task_type"`
	Count    int              `bson:"count" json:"count"`
	Mean     float64          `bson:"mean_duration" json:"mean_duration"`
	SD       float64          `bson:"sd_duration" json:"sd_duration"`
	Samples  []DurationSample `bson:"data" json:"samples"`
}

// SessionFilter restricts session listings.
type SessionFilter struct {
	// Host keeps sessions with at least one entry from this host.
	Host string
}

// DurationsQuery selects invocation durations.
type DurationsQuery struct {
	// Sessions restricts the query; empty means all sessions.
	Sessions []string
	// MinCount drops task types with fewer samples. Zero means 2.
	MinCount int
}

func (q DurationsQuery) minCount() int {
	if q.MinCount <= 0 {
		return 2
	}
	return q.MinCount
}

// Store is a workflow log collection.
type Store interface {
	// Sessions lists sessions, newest first.
	Sessions(ctx context.Context, f SessionFilter) ([]SessionInfo, error)
	// Entries returns the entries of a session with a timestamp after since,
	// sorted by timestamp. Pass since <= 0 for all entries.
	Entries(ctx context.Context, sessionID string, since float64) ([]Entry, error)
	SessionStats(ctx context.Context, sessionID string) (*SessionStats, error)
	TaskTypeStats(ctx context.Context, sessionID string) ([]TaskTypeStats, error)
	// TaskDurations returns per-task-type durations sorted by task type.
	TaskDurations(ctx context.Context, q DurationsQuery) ([]TaskDurations, error)
	Insert(ctx context.Context, entries ...Entry) error
	Close(ctx context.Context) error
}
