// Package dag provides the workflow dependency graph used for layered
// layouts of Pegasus DAX workflows.
//
// # Overview
//
// A workflow is a set of jobs where every job names the jobs it depends on.
// [Graph] stores those jobs in an arena of integer-indexed nodes and records
// each (parent, child) dependency as an [Edge]. Referencing an unknown parent
// creates a placeholder node, so dangling references in a workflow file never
// break the layout.
//
// # Basic Usage
//
// Declare nodes with [Graph.AddNode]; every node is declared once with its
// complete list of parents:
//
//	g := dag.New()
//	g.AddNode("split", nil)
//	g.AddNode("align", []string{"split"})
//	g.AddNode("merge", []string{"align"})
//
// # Layering
//
// [Graph.Layers] runs Kahn's algorithm level by level: level 0 holds every
// node without parents, level 1 every node whose parents are all in level 0,
// and so on. [Graph.Peel] exposes the same traversal one level at a time.
//
// When peeling stalls with nodes left over the graph has a cycle and Layers
// returns a [*CycleError] naming them. Use errors.Is(err, [ErrCycle]) to test
// for it.
//
// Layering never mutates the graph, so [Graph.Edges] can be read before or
// after it.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Once built, a graph
// may be peeled from several goroutines at once since every [Peeler] keeps
// its own counters.
package dag
