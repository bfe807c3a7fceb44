package dag

import "slices"

// CountCrossings returns the number of edge crossings between consecutive
// rows of a layering. Rows hold node IDs in left-to-right order. Edges whose
// endpoints do not sit in adjacent rows are ignored.
//
// Two edges (u1,v1) and (u2,v2) between the same pair of rows cross if and
// only if pos(u1) < pos(u2) and pos(v1) > pos(v2).
func CountCrossings(rows [][]string, edges []Edge) int {
	row := make(map[string]int)
	pos := make(map[string]int)
	for r, ids := range rows {
		for c, id := range ids {
			row[id], pos[id] = r, c
		}
	}

	between := make([][]layerEdge, len(rows))
	for _, e := range edges {
		ru, ok1 := row[e.From]
		rv, ok2 := row[e.To]
		if !ok1 || !ok2 || rv != ru+1 {
			continue
		}
		between[ru] = append(between[ru], layerEdge{pos[e.From], pos[e.To]})
	}

	crossings := 0
	for r := 0; r+1 < len(rows); r++ {
		crossings += countLayerCrossings(between[r], len(rows[r+1]))
	}
	return crossings
}

type layerEdge struct{ upper, lower int }

// countLayerCrossings counts inversions of lower positions after sorting
// edges by upper position, using a Fenwick tree over the lower row.
func countLayerCrossings(edges []layerEdge, width int) int {
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b layerEdge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, width+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for i := e.lower + 1; i < len(fenwick); i += i & (-i) {
			fenwick[i]++
		}
	}
	return crossings
}
