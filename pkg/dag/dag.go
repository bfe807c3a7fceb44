package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID or one
	// of its parent IDs is empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNode is returned by [Graph.AddNode] when a node is declared
	// a second time. A node that only exists as a placeholder (it was named
	// as a parent before being declared) may be declared exactly once.
	ErrDuplicateNode = errors.New("node declared more than once")

	// ErrCycle is matched by every [*CycleError]. The graph contains a
	// dependency cycle and cannot be layered.
	ErrCycle = errors.New("graph contains a cycle")
)

// CycleError is returned by [Graph.Layers] when peeling stalls because every
// remaining node still waits on another remaining node. Nodes lists the
// stuck node IDs in insertion order.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	const max = 10
	ids := e.Nodes
	suffix := ""
	if len(ids) > max {
		ids = ids[:max]
		suffix = fmt.Sprintf(", ... (%d more)", len(e.Nodes)-max)
	}
	return fmt.Sprintf("graph contains a cycle through %s%s", strings.Join(ids, ", "), suffix)
}

// Is makes errors.Is(err, ErrCycle) match.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// Edge is a directed (parent, child) dependency. From must finish before To
// can start.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

type node struct {
	id       string
	parents  []int
	children []int
	declared bool
}

// Graph is a workflow dependency graph stored as an arena of nodes addressed
// by dense integer indices. Nodes are kept in insertion order, which makes
// every query and the layering deterministic.
//
// Graph is never mutated by layering: [Graph.Peel] works on a private copy of
// the in-degree counters. A Graph is not safe for concurrent mutation.
type Graph struct {
	index map[string]int
	nodes []node
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode declares a node together with the IDs of the nodes it depends on.
//
// Parents that are not yet known are created as placeholders with no parents
// of their own, so a dangling parent reference never breaks layering. A
// placeholder can later be declared with its real parents. Declaring the same
// node twice returns [ErrDuplicateNode]; repeated parent IDs within one call
// are collapsed.
func (g *Graph) AddNode(id string, parents []string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	for _, p := range parents {
		if p == "" {
			return fmt.Errorf("parent of %q: %w", id, ErrInvalidNodeID)
		}
	}
	if i, ok := g.index[id]; ok && g.nodes[i].declared {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}

	child := g.intern(id)
	g.nodes[child].declared = true
	for _, p := range parents {
		parent := g.intern(p)
		if slices.Contains(g.nodes[child].parents, parent) {
			continue
		}
		g.nodes[child].parents = append(g.nodes[child].parents, parent)
		g.nodes[parent].children = append(g.nodes[parent].children, child)
		g.edges = append(g.edges, Edge{From: p, To: id})
	}
	return nil
}

func (g *Graph) intern(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, node{id: id})
	g.index[id] = i
	return i
}

// Clear removes every node and edge, leaving an empty graph.
func (g *Graph) Clear() {
	clear(g.index)
	g.nodes = g.nodes[:0]
	g.edges = g.edges[:0]
}

// Len returns the number of nodes, placeholders included.
func (g *Graph) Len() int { return len(g.nodes) }

// Has reports whether id is a node (declared or placeholder).
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// IsPlaceholder reports whether id was only ever referenced as a parent.
func (g *Graph) IsPlaceholder(id string) bool {
	i, ok := g.index[id]
	return ok && !g.nodes[i].declared
}

// IDs returns all node IDs in insertion order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.id
	}
	return ids
}

// Parents returns the IDs id depends on, in declaration order.
func (g *Graph) Parents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.nodes[i].parents)
}

// Children returns the IDs depending on id, in insertion order.
func (g *Graph) Children(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.nodes[i].children)
}

// Edges returns every (parent, child) pair in insertion order. The returned
// slice is a copy and stays valid after the graph is layered or cleared.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = g.nodes[j].id
	}
	return out
}
