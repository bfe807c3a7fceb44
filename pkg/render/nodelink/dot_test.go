package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/wflens/pkg/dag"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/layout"
	"github.com/matzehuels/wflens/pkg/render"
)

func fixture(t *testing.T) (*layout.Result, layout.Store) {
	t.Helper()
	g := dag.New()
	for _, n := range []struct {
		id      string
		parents []string
	}{
		{"ID01", nil},
		{"ID02", []string{"ID01"}},
		{"ID03", []string{"ID01"}},
	} {
		if err := g.AddNode(n.id, n.parents); err != nil {
			t.Fatal(err)
		}
	}
	store := layout.Store{
		"ID01": {Name: "fastqSplit", Color: "#a6cee3"},
		"ID02": {Name: "map", Color: "#1f78b4"},
		"ID03": {Name: "map", Color: "#1f78b4"},
	}
	res, err := layout.Compute(g, store, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return res, store
}

func TestToDOT(t *testing.T) {
	res, store := fixture(t)
	dot := ToDOT(res, store, Options{})

	for _, want := range []string{
		`"ID01" [label="fastqSplit", fillcolor="#a6cee3"];`,
		`{ rank=same; "ID02"; "ID03"; }`,
		`"ID01" -> "ID02";`,
		`"ID01" -> "ID03";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT lacks %q:\n%s", want, dot)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	res, store := fixture(t)
	dot := ToDOT(res, store, Options{Detailed: true})
	if !strings.Contains(dot, `label="map\nID03\nrow: 1 col: 1"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	res, store := fixture(t)
	svg, err := RenderSVG(context.Background(), ToDOT(res, store, Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(svg), []byte("<?xml")) && !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Error("viewBox not normalized")
	}
}

func TestRender_Formats(t *testing.T) {
	res, store := fixture(t)
	dot := ToDOT(res, store, Options{})
	out, err := Render(context.Background(), dot, render.DOT)
	if err != nil || string(out) != dot {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
	if _, err := Render(context.Background(), dot, render.JSON); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render(json) error = %v", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := normalizeViewBox(in)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if string(out) != want {
		t.Errorf("normalizeViewBox() = %s", out)
	}
}
