// Package palette assigns stable colors to task types and job names.
package palette

import (
	"hash/fnv"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Paired12 is the ColorBrewer "Paired" qualitative scheme with 12 classes.
var Paired12 = []string{
	"#a6cee3", "#1f78b4", "#b2df8a", "#33a02c", "#fb9a99", "#e31a1c",
	"#fdbf6f", "#ff7f00", "#cab2d6", "#6a3d9a", "#ffff99", "#b15928",
}

// Scale colors for the three duration units.
const (
	HoursColor   = "#e41a1c"
	MinutesColor = "#377eb8"
	SecondsColor = "#4daf4a"
)

// Assigner hands out palette colors in first-seen order, cycling when the
// palette is exhausted. The zero value uses [Paired12].
type Assigner struct {
	Palette []string

	colors map[string]string
	order  []string
}

// Color returns the color for key, assigning the next palette entry if key
// has not been seen before.
func (a *Assigner) Color(key string) string {
	if c, ok := a.colors[key]; ok {
		return c
	}
	if a.colors == nil {
		a.colors = make(map[string]string)
	}
	p := a.Palette
	if len(p) == 0 {
		p = Paired12
	}
	c := p[len(a.order)%len(p)]
	a.colors[key] = c
	a.order = append(a.order, key)
	return c
}

// Keys returns the keys in the order they were first seen.
func (a *Assigner) Keys() []string {
	return append([]string(nil), a.order...)
}

// Hashed returns a color for name derived from an FNV hash of the name: hue
// is spread over the full circle, lightness and saturation stay in a band
// that renders well on white. The same name always yields the same color.
func Hashed(name string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	sum := h.Sum64()

	hue := float64(sum % 360)
	light := (50 + float64((sum>>16)%10)) / 100
	sat := (90 + float64((sum>>32)%10)) / 100
	return colorful.Hsl(hue, sat, light).Clamped().Hex()
}

// Parse converts a "#rrggbb" string into a color. Invalid input yields
// opaque black.
func Parse(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{A: 0xff}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
