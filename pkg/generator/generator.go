// Package generator produces synthetic workflow logs for load testing and
// demos: random task invocations laid out over a time window, emitted as
// cf3.0 log entries.
package generator

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/interval"
	"github.com/matzehuels/wflens/pkg/logstore"
)

// MinExecTime is the shortest generated run time in seconds.
const MinExecTime = 0.1

// Config describes a synthetic workload.
type Config struct {
	TaskTypes int     `toml:"task_types"`
	Count     int     `toml:"count"`
	AvgExec   float64 `toml:"avg_exec"` // seconds
	VarExec   float64 `toml:"var_exec"` // seconds squared
	Duration  float64 `toml:"duration"` // seconds
}

// DefaultConfig returns 100 tasks of 5 types running 30±√10 s within two
// minutes.
func DefaultConfig() Config {
	return Config{TaskTypes: 5, Count: 100, AvgExec: 30, VarExec: 10, Duration: 120}
}

// Validate checks that the configuration can produce a schedule.
func (c Config) Validate() error {
	switch {
	case c.TaskTypes < 1:
		return errors.New(errors.ErrCodeInvalidInput, "task types must be positive")
	case c.Count < 0:
		return errors.New(errors.ErrCodeInvalidInput, "count must not be negative")
	case c.VarExec < 0:
		return errors.New(errors.ErrCodeInvalidInput, "variance must not be negative")
	case c.Duration < MinExecTime:
		return errors.New(errors.ErrCodeInvalidInput, "duration must be at least %v s", MinExecTime)
	}
	return nil
}

// Step is one scheduled start or stop.
type Step struct {
	Time     float64
	TaskID   int
	TaskType int
	Kind     interval.Kind
}

// Schedule draws Count tasks. Types are uniform over [0, TaskTypes), run
// times normal with mean AvgExec and variance VarExec clamped to
// [MinExecTime, Duration], and start times uniform so that every task ends
// within Duration. Steps are sorted by time.
func Schedule(cfg Config, rng *rand.Rand) ([]Step, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sd := math.Sqrt(cfg.VarExec)
	steps := make([]Step, 0, 2*cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		typ := rng.IntN(cfg.TaskTypes)
		exec := cfg.AvgExec + sd*rng.NormFloat64()
		exec = min(max(exec, MinExecTime), cfg.Duration)
		start := rng.Float64() * (cfg.Duration - exec)
		steps = append(steps,
			Step{Time: start, TaskID: i, TaskType: typ, Kind: interval.Start},
			Step{Time: start + exec, TaskID: i, TaskType: typ, Kind: interval.Stop},
		)
	}
	slices.SortStableFunc(steps, func(a, b Step) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	return steps, nil
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Entries renders steps as cf3.0 log entries of one session. Timestamps
// are tstart plus the step time.
func Entries(steps []Step, sessionID string, tstart float64) []logstore.Entry {
	out := make([]logstore.Entry, len(steps))
	for i, s := range steps {
		e := logstore.Entry{
			Timestamp: tstart + s.Time,
			InvocID:   s.TaskID,
			Session:   logstore.Session{ID: sessionID, TStart: tstart * 1000},
			TaskType:  strconv.Itoa(s.TaskType),
			Machine:   &logstore.Machine{HostName: "generator"},
			Vsn:       logstore.VersionCF30,
		}
		if s.Kind == interval.Start {
			e.Event = logstore.EventInvocStart
			e.InputFiles = []logstore.FileRef{{Name: "input_" + strconv.Itoa(s.TaskID), SizeByte: "1024"}}
		} else {
			e.Event = logstore.EventInvocStop
			e.ExitCode = "ok"
			e.OutputFiles = []logstore.FileRef{{Name: "output_" + strconv.Itoa(s.TaskID), SizeByte: "1024"}}
		}
		out[i] = e
	}
	return out
}

// Replay hands entries to emit in real time: each entry is emitted once its
// offset from the first entry has elapsed, divided by speed. It stops at the
// first emit error or when ctx is done.
func Replay(ctx context.Context, entries []logstore.Entry, speed float64, emit func(context.Context, logstore.Entry) error) error {
	if speed <= 0 {
		speed = 1
	}
	if len(entries) == 0 {
		return nil
	}
	t0, _ := entries[0].Time()
	begin := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, e := range entries {
		ts, _ := e.Time()
		due := begin.Add(time.Duration((ts - t0) / speed * float64(time.Second)))
		if wait := time.Until(due); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
