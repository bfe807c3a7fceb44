package stats

import (
	"math"
	"strconv"
	"strings"
)

// ParseNA parses a probe value. "NA", empty and malformed values give NaN.
func ParseNA(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FillForward replaces NaN values with the last valid value before them.
// Leading NaNs take the first valid value. A series without any valid value
// is returned as zeros.
func FillForward(values []float64) []float64 {
	out := make([]float64, len(values))
	first := math.NaN()
	for _, v := range values {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}
	if math.IsNaN(first) {
		return out
	}
	last := first
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = last
			continue
		}
		out[i] = v
		last = v
	}
	return out
}
