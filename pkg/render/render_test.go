package render

import (
	"bytes"
	"testing"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/matzehuels/wflens/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"svg", SVG, false},
		{".PNG", PNG, false},
		{"pdf", PDF, false},
		{"json", JSON, false},
		{"dot", DOT, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("code = %s", errors.GetCode(err))
		}
	}
	if SVG.ContentType() != "image/svg+xml" || PNG.Ext() != ".png" || JSON.IsImage() {
		t.Error("format helpers")
	}
}

func TestWritePlot(t *testing.T) {
	p := plot.New()
	line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	p.Add(line)

	svg, err := WritePlot(p, Size{}, SVG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("SVG output has no <svg> element")
	}
	png, err := WritePlot(p, Size{Width: 2, Height: 2}, PNG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("PNG output lacks signature")
	}
	if _, err := WritePlot(p, Size{}, JSON); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("WritePlot(json) error = %v", err)
	}
}
