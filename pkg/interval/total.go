package interval

// Point is one control point of a step trace.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RunningTotal returns the number of running invocations over time as a
// left-continuous step trace with two points per event, like the upper
// boundary of the topmost band of [Reconstruct]. Stops without a running
// invocation of their task type are ignored, and unusable events are skipped.
// When invocations are still running after the last event, the trace is
// closed with a drop to zero at that time.
func RunningTotal(events []Event) []Point {
	var pts []Point
	running := 0
	perType := make(map[string]int)
	for _, ev := range events {
		if !usable(ev) {
			continue
		}
		prev := running
		switch ev.Kind {
		case Start:
			perType[ev.TaskType]++
			running++
		case Stop:
			if perType[ev.TaskType] > 0 {
				perType[ev.TaskType]--
				running--
			}
		}
		pts = append(pts, Point{ev.Time, float64(prev)}, Point{ev.Time, float64(running)})
	}
	if running > 0 {
		pts = append(pts, Point{pts[len(pts)-1].X, 0})
	}
	return pts
}

// Utilization summarizes a running-total trace: the peak concurrency and
// the time-weighted mean concurrency between the first and last event.
func Utilization(pts []Point) (peak, mean float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	area := 0.0
	for i := 1; i < len(pts); i++ {
		peak = max(peak, pts[i].Y)
		// Between events the level is that of the previous point.
		area += (pts[i].X - pts[i-1].X) * pts[i-1].Y
	}
	peak = max(peak, pts[0].Y)
	if span := pts[len(pts)-1].X - pts[0].X; span > 0 {
		mean = area / span
	}
	return peak, mean
}
