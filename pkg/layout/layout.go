// Package layout assigns drawing coordinates to the levels of a workflow
// graph.
//
// Every level of [dag.Graph.Layers] becomes one row. Rows are Dist apart
// vertically, starting at y=0, and the nodes of a row are Dist apart
// horizontally and centred on x=0:
//
//	x_i = -((n-1)*Dist)/2 + i*Dist
//
// Display properties live in a caller-owned [Store] keyed by node ID;
// [Compute] fills in the coordinates of every entry.
package layout

import (
	"fmt"
	"strings"

	"github.com/matzehuels/wflens/pkg/dag"
)

// DefaultDist is the spacing between rows and between neighbours in a row.
const DefaultDist = 8.0

// Attrs holds the display attributes of one node. Name and Color are set by
// the caller; X, Y, Row and Col are written by [Compute].
type Attrs struct {
	Name  string  `json:"name" bson:"name"`
	Color string  `json:"color" bson:"color"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Row   int     `json:"row" bson:"row"`
	Col   int     `json:"col" bson:"col"`
}

// Store maps node IDs to their attributes.
type Store map[string]*Attrs

// Options configures [Compute].
type Options struct {
	// Dist is the row and column spacing. Zero means DefaultDist.
	Dist float64
}

// Result is a laid-out graph.
type Result struct {
	Rows  [][]string `json:"rows"`
	Edges []dag.Edge `json:"edges"`
	Dist  float64    `json:"dist"`
	MinX  float64    `json:"min_x"`
	MaxX  float64    `json:"max_x"`
	MaxY  float64    `json:"max_y"`
}

// NodeCount returns the number of laid-out nodes.
func (r *Result) NodeCount() int {
	n := 0
	for _, row := range r.Rows {
		n += len(row)
	}
	return n
}

// MissingAttrsError is returned by [Compute] when graph nodes have no entry
// in the attribute store, typically a parent referenced in a workflow file
// that never declares it as a job.
type MissingAttrsError struct {
	IDs []string
}

func (e *MissingAttrsError) Error() string {
	if len(e.IDs) == 1 {
		return fmt.Sprintf("no attributes for node %q", e.IDs[0])
	}
	return fmt.Sprintf("no attributes for nodes %s", strings.Join(quoteAll(e.IDs), ", "))
}

// Compute lays out g and writes coordinates into store.
//
// The edge list is captured before layering. Compute fails with a
// [*dag.CycleError] for cyclic graphs and with a [*MissingAttrsError] when a
// node has no store entry; the store is left untouched in both cases.
func Compute(g *dag.Graph, store Store, opts Options) (*Result, error) {
	dist := opts.Dist
	if dist <= 0 {
		dist = DefaultDist
	}

	var missing []string
	for _, id := range g.IDs() {
		if store[id] == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingAttrsError{IDs: missing}
	}

	edges := g.Edges()
	rows, err := g.Layers()
	if err != nil {
		return nil, err
	}

	res := &Result{Rows: rows, Edges: edges, Dist: dist}
	for r, row := range rows {
		y := float64(r) * dist
		x0 := RowStart(len(row), dist)
		for c, id := range row {
			a := store[id]
			a.X, a.Y = x0+float64(c)*dist, y
			a.Row, a.Col = r, c
		}
		res.MinX = min(res.MinX, x0)
		res.MaxX = max(res.MaxX, -x0)
		res.MaxY = y
	}
	return res, nil
}

// RowStart returns the x coordinate of the leftmost node of a row of n nodes.
func RowStart(n int, dist float64) float64 {
	if n <= 0 {
		return 0
	}
	return -(float64(n-1) * dist) / 2
}

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%q", id)
	}
	return out
}
