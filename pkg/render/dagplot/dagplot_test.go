package dagplot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/matzehuels/wflens/pkg/dag"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/render"
)

func diamond(t *testing.T) (*layout.Result, layout.Store) {
	t.Helper()
	g := dag.New()
	for _, n := range []struct {
		id      string
		parents []string
	}{
		{"split", nil},
		{"map1", []string{"split"}},
		{"map2", []string{"split"}},
		{"merge", []string{"map1", "map2"}},
	} {
		if err := g.AddNode(n.id, n.parents); err != nil {
			t.Fatal(err)
		}
	}
	store := layout.Store{
		"split": {Name: "fastqSplit", Color: "#a6cee3"},
		"map1":  {Name: "map", Color: "#1f78b4"},
		"map2":  {Name: "map", Color: "#1f78b4"},
		"merge": {Name: "mapMerge", Color: "#b2df8a"},
	}
	res, err := layout.Compute(g, store, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return res, store
}

func TestPlot_Ranges(t *testing.T) {
	res, store := diamond(t)
	p, size, err := Plot(res, store, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// Widest row is [-4, 4]; rows at y = 0, 8, 16.
	if p.X.Min != -12 || p.X.Max != 12 {
		t.Errorf("x range = [%v, %v], want [-12, 12]", p.X.Min, p.X.Max)
	}
	if p.Y.Min != -8 || p.Y.Max != 24 {
		t.Errorf("y range = [%v, %v], want [-8, 24]", p.Y.Min, p.Y.Max)
	}
	if size.Width != DefaultWidth || size.Height != DefaultWidth*32/24 {
		t.Errorf("size = %+v", size)
	}
}

func TestPlot_ClipsWideRows(t *testing.T) {
	g := dag.New()
	store := layout.Store{}
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26)) + string(rune('0'+i/26))
		if err := g.AddNode(id, nil); err != nil {
			t.Fatal(err)
		}
		store[id] = &layout.Attrs{Name: "job", Color: "#000000"}
	}
	res, err := layout.Compute(g, store, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}
	p, _, err := Plot(res, store, Options{HalfWidth: 50})
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Min != -50 || p.X.Max != 50 {
		t.Errorf("x range = [%v, %v], want [-50, 50]", p.X.Min, p.X.Max)
	}
}

func TestRender(t *testing.T) {
	res, store := diamond(t)
	svg, err := Render(res, store, Options{Title: "diamond"}, render.SVG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
	if !bytes.Contains(svg, []byte("fas")) {
		t.Error("node label missing from SVG")
	}
}

func TestPlot_MissingAttrs(t *testing.T) {
	res, store := diamond(t)
	delete(store, "merge")
	_, _, err := Plot(res, store, Options{})
	var missing *layout.MissingAttrsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingAttrsError", err)
	}
}

func TestShortLabel(t *testing.T) {
	tests := []struct{ name, want string }{
		{"fastqSplit", "fas"},
		{"map", "map"},
		{"ab", "ab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortLabel("", &layout.Attrs{Name: tt.name}); got != tt.want {
			t.Errorf("ShortLabel(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
