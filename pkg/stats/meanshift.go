package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Clustering parameters for task statistics.
const (
	// MinTaskSamples is the number of samples a task type needs before it
	// is clustered at all.
	MinTaskSamples = 5
	// MinClusterSize drops clusters with fewer members.
	MinClusterSize = 3
	// BandwidthQuantile is the neighbour fraction used by EstimateBandwidth.
	BandwidthQuantile = 0.3

	maxShiftIterations = 300
)

// EstimateBandwidth returns the mean distance of every value to its k-th
// nearest value (itself included), k = quantile*len(xs).
func EstimateBandwidth(xs []float64, quantile float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	k := max(int(float64(n)*quantile), 1)
	dist := make([]float64, n)
	total := 0.0
	for _, x := range xs {
		for j, y := range xs {
			dist[j] = math.Abs(x - y)
		}
		slices.Sort(dist)
		total += dist[k-1]
	}
	return total / float64(n)
}

// MeanShift1D clusters values with a flat kernel of the given radius. Every
// value seeds a mode search; modes within bandwidth of a more populated mode
// are merged into it. Each value is labeled with its nearest mode. centers
// are ordered by population, largest first. A non-positive bandwidth puts
// everything into one cluster.
func MeanShift1D(xs []float64, bandwidth float64) (labels []int, centers []float64) {
	if len(xs) == 0 {
		return nil, nil
	}
	labels = make([]int, len(xs))
	if bandwidth <= 0 {
		return labels, []float64{stat.Mean(xs, nil)}
	}

	type mode struct {
		center float64
		count  int
	}
	modes := make([]mode, 0, len(xs))
	for _, seed := range xs {
		c := seed
		var count int
		for it := 0; it < maxShiftIterations; it++ {
			sum := 0.0
			count = 0
			for _, x := range xs {
				if math.Abs(x-c) <= bandwidth {
					sum += x
					count++
				}
			}
			next := sum / float64(count)
			shift := math.Abs(next - c)
			c = next
			if shift < 1e-3*bandwidth {
				break
			}
		}
		modes = append(modes, mode{c, count})
	}

	slices.SortStableFunc(modes, func(a, b mode) int {
		switch {
		case a.count != b.count:
			return b.count - a.count
		case a.center > b.center:
			return -1
		case a.center < b.center:
			return 1
		default:
			return 0
		}
	})
	for _, m := range modes {
		merged := false
		for _, c := range centers {
			if math.Abs(m.center-c) <= bandwidth {
				merged = true
				break
			}
		}
		if !merged {
			centers = append(centers, m.center)
		}
	}

	for i, x := range xs {
		best := 0
		for j, c := range centers {
			if math.Abs(x-c) < math.Abs(x-centers[best]) {
				best = j
			}
		}
		labels[i] = best
	}
	return labels, centers
}

// Point is a two-dimensional observation, e.g. input size against run time.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cluster summarizes the members of one cluster with population moments.
type Cluster struct {
	MeanX float64 `json:"mean_x"`
	MeanY float64 `json:"mean_y"`
	StdX  float64 `json:"std_x"`
	StdY  float64 `json:"std_y"`
	Size  int     `json:"size"`
}

// Clusters groups points by mean-shift clustering of their x values and
// summarizes every cluster with at least MinClusterSize members. If no
// cluster is large enough, all points form a single cluster.
func Clusters(points []Point) []Cluster {
	if len(points) == 0 {
		return nil
	}
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	labels, centers := MeanShift1D(xs, EstimateBandwidth(xs, BandwidthQuantile))

	var out []Cluster
	for k := range centers {
		var members []Point
		for i, l := range labels {
			if l == k {
				members = append(members, points[i])
			}
		}
		if len(members) < MinClusterSize {
			continue
		}
		out = append(out, summarize(members))
	}
	if len(out) == 0 {
		out = append(out, summarize(points))
	}
	return out
}

func summarize(points []Point) Cluster {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	c := Cluster{Size: len(points)}
	c.MeanX, c.StdX = stat.PopMeanStdDev(xs, nil)
	c.MeanY, c.StdY = stat.PopMeanStdDev(ys, nil)
	return c
}
