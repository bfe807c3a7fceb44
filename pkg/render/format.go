package render

import (
	"bytes"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/wflens/pkg/errors"
)

// Format is an output format.
type Format string

// Supported formats. Not every renderer supports every format.
const (
	SVG  Format = "svg"
	PNG  Format = "png"
	PDF  Format = "pdf"
	JSON Format = "json"
	DOT  Format = "dot"
)

// ParseFormat parses a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case SVG, PNG, PDF, JSON, DOT:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PNG:
		return "image/png"
	case PDF:
		return "application/pdf"
	case JSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// IsImage reports whether gonum/plot can write the format.
func (f Format) IsImage() bool {
	return f == SVG || f == PNG || f == PDF
}

// Size is a drawing size in inches.
type Size struct {
	Width  float64
	Height float64
}

// DefaultSize is used when a renderer gets a zero Size.
var DefaultSize = Size{Width: 8, Height: 6}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

// WritePlot encodes p in the given image format.
func WritePlot(p *plot.Plot, size Size, f Format) ([]byte, error) {
	if !f.IsImage() {
		return nil, errors.New(errors.ErrCodeUnsupported, "cannot draw a chart as %s", f)
	}
	size = size.orDefault()
	wt, err := p.WriterTo(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch, string(f))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", f)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", f)
	}
	return buf.Bytes(), nil
}
