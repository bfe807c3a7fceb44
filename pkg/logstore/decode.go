package logstore

import (
	"math"
	"slices"

	"github.com/matzehuels/wflens/pkg/interval"
)

// Decoded is the result of [Decode].
type Decoded struct {
	Events []interval.Event
	// Ignored counts entries that do not describe invocations.
	Ignored int
	// Dropped counts invocation entries without a usable time, status or
	// task type.
	Dropped int
	// Unmatched counts stops whose invocation was never seen starting.
	Unmatched int
}

// Decode turns log entries into time-sorted interval events. Task types are
// shortened with [ShortName]. A stop carrying an invocation id that has no
// running start is dropped; stops without an id are passed through and left
// to the replay's clamping. Entries with equal timestamps keep their order.
func Decode(entries []Entry) *Decoded {
	type timed struct {
		t float64
		e *Entry
	}
	out := &Decoded{}
	valid := make([]timed, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if !e.IsInvocation() {
			out.Ignored++
			continue
		}
		t, ok := e.Time()
		if !ok || math.IsNaN(t) || math.IsInf(t, 0) || e.Kind() == interval.Unknown || e.TaskName() == "" {
			out.Dropped++
			continue
		}
		valid = append(valid, timed{t, e})
	}
	slices.SortStableFunc(valid, func(a, b timed) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		default:
			return 0
		}
	})

	running := make(map[string]int)
	out.Events = make([]interval.Event, 0, len(valid))
	for _, v := range valid {
		kind := v.e.Kind()
		key := v.e.InvocationKey()
		if key != "" {
			switch kind {
			case interval.Start:
				running[key]++
			case interval.Stop:
				if running[key] == 0 {
					out.Unmatched++
					continue
				}
				running[key]--
			}
		}
		out.Events = append(out.Events, interval.Event{
			Time:     v.t,
			TaskType: ShortName(v.e.TaskName()),
			Kind:     kind,
		})
	}
	return out
}
