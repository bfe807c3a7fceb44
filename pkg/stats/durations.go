package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/palette"
)

// ReferencePoints is the number of points on the fitted reference curve.
const ReferencePoints = 50

// Scale is the time unit a duration distribution is shown in.
type Scale struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
	Color   string  `json:"color"`
}

// Time scales, chosen by the mean duration.
var (
	Seconds = Scale{"seconds", 1, palette.SecondsColor}
	Minutes = Scale{"minutes", 60, palette.MinutesColor}
	Hours   = Scale{"hours", 3600, palette.HoursColor}
)

// ScaleFor picks hours for means above an hour, minutes above a minute and
// seconds otherwise.
func ScaleFor(meanSeconds float64) Scale {
	switch {
	case meanSeconds > 3600:
		return Hours
	case meanSeconds > 60:
		return Minutes
	default:
		return Seconds
	}
}

// Sample is one observed duration in seconds.
type Sample struct {
	Label   string  `json:"label"` // usually the session id
	Seconds float64 `json:"seconds"`
}

// CDFPoint is a point of an empirical or reference distribution function.
type CDFPoint struct {
	Value float64 `json:"value"`
	P     float64 `json:"p"`
	Label string  `json:"label,omitempty"`
}

// DurationSummary describes the distribution of one task type's durations.
// Values are in Scale units.
type DurationSummary struct {
	N         int         `json:"n"`
	Scale     Scale       `json:"scale"`
	Mean      float64     `json:"mean"`
	SD        float64     `json:"sd"`
	ECDF      []CDFPoint  `json:"ecdf"`
	Quartiles [3]CDFPoint `json:"quartiles"`
	// Reference is the CDF of a log-normal fitted to the samples. It is
	// empty when the fit is undefined (non-positive durations, no spread).
	Reference []CDFPoint `json:"reference,omitempty"`
}

// Durations computes the empirical CDF of the samples. The CDF value of the
// i-th smallest of n samples is i/n, and quartiles are read off at indices
// n/4, n/2 and 3n/4.
func Durations(samples []Sample) (*DurationSummary, error) {
	n := len(samples)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no duration samples")
	}
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b Sample) int {
		switch {
		case a.Seconds < b.Seconds:
			return -1
		case a.Seconds > b.Seconds:
			return 1
		default:
			return 0
		}
	})

	raw := make([]float64, n)
	for i, s := range sorted {
		raw[i] = s.Seconds
	}
	scale := ScaleFor(stat.Mean(raw, nil))
	vals := make([]float64, n)
	for i, v := range raw {
		vals[i] = v / scale.Seconds
	}

	sum := &DurationSummary{N: n, Scale: scale, Mean: stat.Mean(vals, nil)}
	if n > 1 {
		sum.SD = stat.StdDev(vals, nil)
	}
	sum.ECDF = make([]CDFPoint, n)
	for i, s := range sorted {
		sum.ECDF[i] = CDFPoint{Value: vals[i], P: float64(i) / float64(n), Label: s.Label}
	}
	for k, q := range []float64{0.25, 0.5, 0.75} {
		sum.Quartiles[k] = sum.ECDF[int(float64(n)*q)]
	}
	sum.Reference = logNormalReference(vals)
	return sum, nil
}

func logNormalReference(sorted []float64) []CDFPoint {
	if sorted[0] <= 0 {
		return nil
	}
	logs := make([]float64, len(sorted))
	for i, v := range sorted {
		logs[i] = math.Log(v)
	}
	mu, sigma := stat.PopMeanStdDev(logs, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return nil
	}
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma}
	xs := floats.Span(make([]float64, ReferencePoints), sorted[0], sorted[len(sorted)-1])
	out := make([]CDFPoint, len(xs))
	for i, x := range xs {
		out[i] = CDFPoint{Value: x, P: dist.CDF(x)}
	}
	return out
}
