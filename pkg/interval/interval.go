package interval

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/wflens/pkg/palette"
)

// Kind tells whether an event opens or closes an invocation.
type Kind int

const (
	// Unknown marks an event whose status could not be interpreted.
	Unknown Kind = iota
	Start
	Stop
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// ParseKind maps the status strings found in workflow logs to a Kind.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "started", "invoc_start":
		return Start
	case "stop", "stopped", "ok", "error", "invoc_stop":
		return Stop
	default:
		return Unknown
	}
}

// Event is one start or stop of a task invocation. Time is in seconds.
type Event struct {
	Time     float64 `json:"time" bson:"time"`
	TaskType string  `json:"task_type" bson:"task_type"`
	Kind     Kind    `json:"kind" bson:"kind"`
}

// Series is the closed outline of one band of the stacked chart. Xs and Ys
// have equal length; the first half traces the upper boundary left to right
// and the second half traces the floor right to left.
type Series struct {
	TaskType string    `json:"task_type"`
	Color    string    `json:"color"`
	Xs       []float64 `json:"xs"`
	Ys       []float64 `json:"ys"`
}

// Empty reports whether the series has no control points.
func (s Series) Empty() bool { return len(s.Xs) == 0 }

// Upper returns the upper boundary trace of a closed series.
func (s Series) Upper() (xs, ys []float64) {
	n := len(s.Xs) / 2
	return s.Xs[:n], s.Ys[:n]
}

// Peak returns the largest y value of the series.
func (s Series) Peak() float64 {
	peak := 0.0
	for _, y := range s.Ys {
		peak = max(peak, y)
	}
	return peak
}

// Result is the output of [Reconstruct].
type Result struct {
	// Series holds one entry per task type, bottom to top.
	Series []Series `json:"series"`
	// Open counts invocations per task type still running after the last event.
	Open map[string]int `json:"open,omitempty"`
	// Clamped counts stop events that would have driven a counter below zero.
	Clamped int `json:"clamped"`
	// Skipped counts events dropped for a non-finite time or unknown kind.
	Skipped int `json:"skipped"`
	// Start and End bound the event times.
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Order returns the stacking order, bottom to top.
func (r *Result) Order() []string {
	out := make([]string, len(r.Series))
	for i, s := range r.Series {
		out[i] = s.TaskType
	}
	return out
}

// Lookup returns the series for a task type.
func (r *Result) Lookup(taskType string) (Series, bool) {
	for _, s := range r.Series {
		if s.TaskType == taskType {
			return s, true
		}
	}
	return Series{}, false
}

// Reconstruct replays time-sorted start/stop events and returns one closed
// polygon per task type, stacked in the given order (bottom first).
//
// Task types that appear in events but not in order are stacked on top in
// the order they are first seen. Events must already be sorted by time;
// Reconstruct does not sort them. Colors come from pal (Paired12 when empty)
// in first-seen order of the task types.
//
// Reconstruct has no side effects and returns the same result for the same
// input.
func Reconstruct(events []Event, order []string, pal []string) *Result {
	order = stackOrder(events, order)
	idx := make(map[string]int, len(order))
	for i, tt := range order {
		idx[tt] = i
	}

	res := &Result{Series: make([]Series, len(order))}
	counts := make([]int, len(order))
	height := make([]float64, len(order))
	var xs []float64
	uppers := make([][]float64, len(order))

	first := true
	for _, ev := range events {
		if !usable(ev) {
			res.Skipped++
			continue
		}
		if first {
			res.Start, first = ev.Time, false
		}
		res.End = ev.Time

		i := idx[ev.TaskType]
		switch ev.Kind {
		case Start:
			counts[i]++
		case Stop:
			if counts[i] == 0 {
				res.Clamped++
			} else {
				counts[i]--
			}
		}

		xs = append(xs, ev.Time, ev.Time)
		cum := 0
		for j := range order {
			cum += counts[j]
			uppers[j] = append(uppers[j], height[j], float64(cum))
			height[j] = float64(cum)
		}
	}

	for i := range order {
		if counts[i] > 0 {
			if res.Open == nil {
				res.Open = make(map[string]int)
			}
			res.Open[order[i]] = counts[i]
		}
	}

	colors := assignColors(events, order, pal)
	for i, tt := range order {
		var floor []float64
		if i > 0 {
			floor = uppers[i-1]
		}
		res.Series[i] = closeSeries(tt, colors[tt], xs, uppers[i], floor)
	}
	return res
}

// closeSeries appends the reversed trace: the floor for the bottom series is
// y=0, every other series closes on the upper boundary of the one below.
func closeSeries(taskType, color string, xs, upper, floor []float64) Series {
	s := Series{TaskType: taskType, Color: color}
	n := len(xs)
	if n == 0 {
		s.Xs, s.Ys = []float64{}, []float64{}
		return s
	}
	s.Xs = make([]float64, 0, 2*n)
	s.Ys = make([]float64, 0, 2*n)
	s.Xs = append(s.Xs, xs...)
	s.Ys = append(s.Ys, upper...)
	for k := n - 1; k >= 0; k-- {
		s.Xs = append(s.Xs, xs[k])
		if floor == nil {
			s.Ys = append(s.Ys, 0)
		} else {
			s.Ys = append(s.Ys, floor[k])
		}
	}
	return s
}

func stackOrder(events []Event, order []string) []string {
	out := make([]string, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, tt := range order {
		if !seen[tt] {
			seen[tt] = true
			out = append(out, tt)
		}
	}
	for _, ev := range events {
		if usable(ev) && !seen[ev.TaskType] {
			seen[ev.TaskType] = true
			out = append(out, ev.TaskType)
		}
	}
	return out
}

func assignColors(events []Event, order []string, pal []string) map[string]string {
	a := &palette.Assigner{Palette: pal}
	for _, ev := range events {
		if usable(ev) {
			a.Color(ev.TaskType)
		}
	}
	colors := make(map[string]string, len(order))
	for _, tt := range order {
		colors[tt] = a.Color(tt)
	}
	return colors
}

func usable(ev Event) bool {
	return !math.IsNaN(ev.Time) && !math.IsInf(ev.Time, 0) && (ev.Kind == Start || ev.Kind == Stop)
}

// SortEvents sorts events by time, keeping the input order of simultaneous
// events.
func SortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
}

// IsSorted reports whether events are in non-decreasing time order.
func IsSorted(events []Event) bool {
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a reconstruction: every
// series has matching Xs/Ys lengths, all series share one length, and no
// band dips below the one beneath it.
func Validate(r *Result) error {
	if len(r.Series) == 0 {
		return nil
	}
	n := len(r.Series[0].Xs)
	for i, s := range r.Series {
		if len(s.Xs) != len(s.Ys) {
			return fmt.Errorf("series %q: %d xs but %d ys", s.TaskType, len(s.Xs), len(s.Ys))
		}
		if len(s.Xs) != n {
			return fmt.Errorf("series %q: %d control points, want %d", s.TaskType, len(s.Xs), n)
		}
		if i == 0 {
			continue
		}
		_, below := r.Series[i-1].Upper()
		_, upper := s.Upper()
		for k := range upper {
			if upper[k] < below[k] {
				return fmt.Errorf("series %q dips below %q at point %d", s.TaskType, r.Series[i-1].TaskType, k)
			}
		}
	}
	return nil
}
