// Package interval rebuilds stacked "running tasks" charts from workflow
// start/stop logs.
//
// # Overview
//
// A workflow log is a time-ordered list of [Event] values, each marking the
// start or stop of one invocation of a task type. [Reconstruct] replays the
// list, keeps one counter per task type and turns the counters into one
// closed polygon per task type. The polygons are stacked: the band of a task
// type sits on top of the bands of every task type before it in the
// stacking order.
//
// # Step Shape
//
// Counts change only at event times. For every event each band receives two
// control points at the event time: its previous cumulative height and its
// new one. The resulting outline is a left-continuous step function with a
// vertical segment at every event.
//
// # Closing
//
// After replay every band is closed by walking back along its floor: y=0 for
// the bottom band and the upper boundary of the band directly below for all
// others. All bands therefore share the same x sequence and the same number
// of control points, and an empty event list gives empty bands.
//
// # Robustness
//
// A stop without a matching running invocation is clamped at zero and counted
// in [Result.Clamped]. Events with a non-finite time or an unknown [Kind] are
// dropped and counted in [Result.Skipped]. Events with equal timestamps are
// applied in input order.
package interval
