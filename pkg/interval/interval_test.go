package interval

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/wflens/pkg/palette"
)

func abEvents() []Event {
	return []Event{
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 1, TaskType: "B", Kind: Start},
		{Time: 2, TaskType: "A", Kind: Stop},
		{Time: 3, TaskType: "B", Kind: Stop},
	}
}

func TestReconstruct_TwoTypes(t *testing.T) {
	res := Reconstruct(abEvents(), []string{"A", "B"}, nil)

	if len(res.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(res.Series))
	}
	a, b := res.Series[0], res.Series[1]

	wantXs := []float64{0, 0, 1, 1, 2, 2, 3, 3, 3, 3, 2, 2, 1, 1, 0, 0}
	if !reflect.DeepEqual(a.Xs, wantXs) || !reflect.DeepEqual(b.Xs, wantXs) {
		t.Errorf("Xs = %v / %v, want %v", a.Xs, b.Xs, wantXs)
	}

	wantA := []float64{0, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !reflect.DeepEqual(a.Ys, wantA) {
		t.Errorf("A.Ys = %v, want %v", a.Ys, wantA)
	}
	wantB := []float64{0, 1, 1, 2, 2, 1, 1, 0, 0, 0, 0, 1, 1, 1, 1, 0}
	if !reflect.DeepEqual(b.Ys, wantB) {
		t.Errorf("B.Ys = %v, want %v", b.Ys, wantB)
	}

	// Between t=1 and t=2 both tasks run, so B's top is at 2.
	xs, ys := b.Upper()
	for k := range xs {
		if xs[k] > 1 && xs[k] < 2 {
			t.Fatalf("unexpected control point inside (1,2): %v", xs[k])
		}
	}
	if ys[3] != 2 || ys[4] != 2 || xs[3] != 1 || xs[4] != 2 {
		t.Errorf("B upper between t=1 and t=2 = (%v,%v)-(%v,%v), want height 2", xs[3], ys[3], xs[4], ys[4])
	}

	if a.Color != palette.Paired12[0] || b.Color != palette.Paired12[1] {
		t.Errorf("colors = %s, %s", a.Color, b.Color)
	}
	if res.Start != 0 || res.End != 3 || res.Clamped != 0 || res.Skipped != 0 || res.Open != nil {
		t.Errorf("summary = %+v", res)
	}
	if err := Validate(res); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestReconstruct_Empty(t *testing.T) {
	res := Reconstruct(nil, []string{"A", "B"}, nil)
	if len(res.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(res.Series))
	}
	for _, s := range res.Series {
		if !s.Empty() || len(s.Ys) != 0 {
			t.Errorf("series %s not empty: %v %v", s.TaskType, s.Xs, s.Ys)
		}
	}

	if res := Reconstruct(nil, nil, nil); len(res.Series) != 0 {
		t.Errorf("no order and no events: %d series", len(res.Series))
	}
}

func TestReconstruct_ClampsUnmatchedStop(t *testing.T) {
	events := []Event{
		{Time: 0, TaskType: "A", Kind: Stop},
		{Time: 1, TaskType: "A", Kind: Start},
		{Time: 2, TaskType: "A", Kind: Stop},
		{Time: 3, TaskType: "A", Kind: Stop},
	}
	res := Reconstruct(events, []string{"A"}, nil)
	if res.Clamped != 2 {
		t.Errorf("Clamped = %d, want 2", res.Clamped)
	}
	for _, y := range res.Series[0].Ys {
		if y < 0 {
			t.Fatalf("negative height in %v", res.Series[0].Ys)
		}
	}
}

func TestReconstruct_UnlistedTypesStackOnTop(t *testing.T) {
	events := []Event{
		{Time: 0, TaskType: "Z", Kind: Start},
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 1, TaskType: "Y", Kind: Start},
	}
	res := Reconstruct(events, []string{"A"}, nil)

	if got, want := res.Order(), []string{"A", "Z", "Y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
	// Colors follow first appearance in the log, not stacking order.
	z, _ := res.Lookup("Z")
	a, _ := res.Lookup("A")
	if z.Color != palette.Paired12[0] || a.Color != palette.Paired12[1] {
		t.Errorf("colors Z=%s A=%s", z.Color, a.Color)
	}
	if res.Open["Y"] != 1 || res.Open["A"] != 1 || res.Open["Z"] != 1 {
		t.Errorf("Open = %v", res.Open)
	}
}

func TestReconstruct_TypeWithoutEventsIsDegenerate(t *testing.T) {
	events := []Event{
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 5, TaskType: "A", Kind: Stop},
	}
	res := Reconstruct(events, []string{"A", "idle"}, nil)
	a, idle := res.Series[0], res.Series[1]
	if len(idle.Xs) != len(a.Xs) {
		t.Fatalf("idle has %d points, A has %d", len(idle.Xs), len(a.Xs))
	}
	// Upper boundary equals floor: zero area.
	n := len(idle.Ys) / 2
	for k := 0; k < n; k++ {
		if idle.Ys[k] != idle.Ys[len(idle.Ys)-1-k] {
			t.Fatalf("idle band has area at %d: %v", k, idle.Ys)
		}
	}
}

func TestReconstruct_SkipsUnusableEvents(t *testing.T) {
	events := []Event{
		{Time: math.NaN(), TaskType: "A", Kind: Start},
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 1, TaskType: "bad", Kind: Unknown},
		{Time: math.Inf(1), TaskType: "A", Kind: Stop},
		{Time: 2, TaskType: "A", Kind: Stop},
	}
	res := Reconstruct(events, nil, nil)
	if res.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", res.Skipped)
	}
	if got := res.Order(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Order() = %v, want [A]", got)
	}
	if len(res.Series[0].Xs) != 8 {
		t.Errorf("len(Xs) = %d, want 8", len(res.Series[0].Xs))
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	events := abEvents()
	first := Reconstruct(events, []string{"B", "A"}, palette.Paired12)
	second := Reconstruct(events, []string{"B", "A"}, palette.Paired12)
	if !reflect.DeepEqual(first, second) {
		t.Error("Reconstruct() not deterministic")
	}
	if !reflect.DeepEqual(events, abEvents()) {
		t.Error("Reconstruct() modified its input")
	}
}

func TestReconstruct_SimultaneousEvents(t *testing.T) {
	events := []Event{
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 1, TaskType: "A", Kind: Stop},
		{Time: 1, TaskType: "A", Kind: Stop},
	}
	res := Reconstruct(events, nil, nil)
	xs, ys := res.Series[0].Upper()
	wantXs := []float64{0, 0, 0, 0, 1, 1, 1, 1}
	wantYs := []float64{0, 1, 1, 2, 2, 1, 1, 0}
	if !reflect.DeepEqual(xs, wantXs) || !reflect.DeepEqual(ys, wantYs) {
		t.Errorf("upper = %v/%v, want %v/%v", xs, ys, wantXs, wantYs)
	}
}

func TestReconstruct_ManyTypesStayStacked(t *testing.T) {
	var events []Event
	types := []string{"a", "b", "c", "d"}
	for i := 0; i < 40; i++ {
		tt := types[i%len(types)]
		kind := Start
		if i%3 == 2 {
			kind = Stop
		}
		events = append(events, Event{Time: float64(i), TaskType: tt, Kind: kind})
	}
	res := Reconstruct(events, types, nil)
	if err := Validate(res); err != nil {
		t.Fatal(err)
	}
	top := res.Series[len(res.Series)-1]
	_, ys := top.Upper()
	total := RunningTotal(events)
	for k := range ys {
		if ys[k] != total[k].Y {
			t.Fatalf("top band at %d = %v, running total = %v", k, ys[k], total[k].Y)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"started", Start},
		{"invoc_start", Start},
		{" START ", Start},
		{"ok", Stop},
		{"invoc_stop", Stop},
		{"error", Stop},
		{"", Unknown},
		{"queued", Unknown},
	}
	for _, tt := range tests {
		if got := ParseKind(tt.in); got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSortEvents(t *testing.T) {
	events := []Event{
		{Time: 2, TaskType: "x"},
		{Time: 1, TaskType: "first"},
		{Time: 1, TaskType: "second"},
	}
	if IsSorted(events) {
		t.Error("IsSorted() = true for unsorted input")
	}
	SortEvents(events)
	if !IsSorted(events) || events[0].TaskType != "first" || events[1].TaskType != "second" {
		t.Errorf("SortEvents() = %v", events)
	}
}

func TestRunningTotalAndUtilization(t *testing.T) {
	pts := RunningTotal(abEvents())
	want := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {2, 2}, {2, 1}, {3, 1}, {3, 0}}
	if !reflect.DeepEqual(pts, want) {
		t.Errorf("RunningTotal() = %v, want %v", pts, want)
	}

	peak, mean := Utilization(pts)
	if peak != 2 {
		t.Errorf("peak = %v, want 2", peak)
	}
	if math.Abs(mean-4.0/3) > 1e-9 {
		t.Errorf("mean = %v, want 4/3", mean)
	}

	if p, m := Utilization(nil); p != 0 || m != 0 {
		t.Errorf("Utilization(nil) = %v, %v", p, m)
	}
}

func TestRunningTotal_ClosesOpenInvocations(t *testing.T) {
	events := []Event{
		{Time: 0, TaskType: "A", Kind: Start},
		{Time: 1, TaskType: "A", Kind: Start},
	}
	pts := RunningTotal(events)
	want := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {1, 0}}
	if !reflect.DeepEqual(pts, want) {
		t.Errorf("RunningTotal() = %v, want %v", pts, want)
	}

	peak, mean := Utilization(pts)
	if peak != 2 || mean != 1 {
		t.Errorf("Utilization() = %v, %v, want 2, 1", peak, mean)
	}

	if pts := RunningTotal(nil); len(pts) != 0 {
		t.Errorf("RunningTotal(nil) = %v", pts)
	}
}
