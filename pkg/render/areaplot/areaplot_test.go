package areaplot

import (
	"bytes"
	"testing"

	"github.com/matzehuels/wflens/pkg/interval"
	"github.com/matzehuels/wflens/pkg/render"
)

func events() []interval.Event {
	return []interval.Event{
		{Time: 0, TaskType: "A", Kind: interval.Start},
		{Time: 1, TaskType: "B", Kind: interval.Start},
		{Time: 2, TaskType: "A", Kind: interval.Stop},
		{Time: 3, TaskType: "B", Kind: interval.Stop},
	}
}

func TestPlot(t *testing.T) {
	res := interval.Reconstruct(events(), []string{"A", "B"}, nil)
	p, err := Plot(res, Options{Title: "session", Total: interval.RunningTotal(events())})
	if err != nil {
		t.Fatal(err)
	}
	if p.Y.Min != 0 {
		t.Errorf("Y.Min = %v, want 0", p.Y.Min)
	}
	if p.X.Min != 0 || p.X.Max != 3 {
		t.Errorf("x range = [%v, %v], want [0, 3]", p.X.Min, p.X.Max)
	}
	if p.Y.Max != 2 {
		t.Errorf("Y.Max = %v, want 2", p.Y.Max)
	}
}

func TestRender(t *testing.T) {
	res := interval.Reconstruct(events(), nil, nil)
	out, err := Render(res, Options{
		Lines: []Line{{Name: "load1", Color: "#e31a1c", Points: []interval.Point{{X: 0, Y: 0.5}, {X: 3, Y: 1.5}}}},
	}, render.SVG)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<svg", "running tasks", "load1"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("SVG lacks %q", want)
		}
	}
}

func TestRender_Empty(t *testing.T) {
	res := interval.Reconstruct(nil, []string{"A"}, nil)
	if _, err := Render(res, Options{}, render.PNG); err != nil {
		t.Fatal(err)
	}
	if _, err := Plot(nil, Options{}); err == nil {
		t.Error("Plot(nil) succeeded")
	}
}
