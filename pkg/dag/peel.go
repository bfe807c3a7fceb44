package dag

// Peeler hands out the nodes of a [Graph] level by level: first every node
// without parents, then every node whose parents have all been handed out,
// and so on. It keeps its own in-degree counters so the graph stays intact.
//
// A Peeler is created by [Graph.Peel] and must not outlive modifications of
// the graph it was created from.
type Peeler struct {
	g       *Graph
	pending []int  // unresolved parent count per node
	removed []bool // node already handed out
	left    int
}

// Peel starts a new level-by-level traversal of g.
func (g *Graph) Peel() *Peeler {
	p := &Peeler{
		g:       g,
		pending: make([]int, len(g.nodes)),
		removed: make([]bool, len(g.nodes)),
		left:    len(g.nodes),
	}
	for i, n := range g.nodes {
		p.pending[i] = len(n.parents)
	}
	return p
}

// Next removes and returns every node that currently has no unresolved
// parents, in insertion order, and resolves the edges to their children.
//
// Next returns an empty slice once the graph is exhausted, and also when the
// remaining nodes all wait on each other. Callers tell the two apart with
// [Peeler.Remaining].
func (p *Peeler) Next() []string {
	var ready []int
	for i := range p.pending {
		if !p.removed[i] && p.pending[i] == 0 {
			ready = append(ready, i)
		}
	}
	for _, i := range ready {
		p.removed[i] = true
		for _, c := range p.g.nodes[i].children {
			p.pending[c]--
		}
	}
	p.left -= len(ready)
	return p.g.names(ready)
}

// Remaining returns the number of nodes not yet handed out.
func (p *Peeler) Remaining() int { return p.left }

// Stuck returns the IDs of every node not yet handed out, in insertion order.
func (p *Peeler) Stuck() []string {
	var ids []string
	for i, done := range p.removed {
		if !done {
			ids = append(ids, p.g.nodes[i].id)
		}
	}
	return ids
}

// Layers peels the whole graph and returns its levels: level 0 holds the
// nodes without parents and every node sits one level below the deepest of
// its parents. Nodes inside a level keep insertion order.
//
// Layers returns a [*CycleError] if the graph contains a cycle. An empty graph
// yields no levels and no error.
func (g *Graph) Layers() ([][]string, error) {
	p := g.Peel()
	var layers [][]string
	for p.Remaining() > 0 {
		level := p.Next()
		if len(level) == 0 {
			return nil, &CycleError{Nodes: p.Stuck()}
		}
		layers = append(layers, level)
	}
	return layers, nil
}
