package dag_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/wflens/pkg/dag"
)

func ExampleGraph_Layers() {
	// C waits for both A and B.
	g := dag.New()
	_ = g.AddNode("A", nil)
	_ = g.AddNode("B", nil)
	_ = g.AddNode("C", []string{"A", "B"})

	layers, _ := g.Layers()
	fmt.Println("Layers:", layers)
	fmt.Println("Edges:", g.Edges())
	// Output:
	// Layers: [[A B] [C]]
	// Edges: [{A C} {B C}]
}

func ExampleGraph_Peel() {
	g := dag.New()
	_ = g.AddNode("align", []string{"split"})
	_ = g.AddNode("merge", []string{"align"})

	p := g.Peel()
	for p.Remaining() > 0 {
		fmt.Println(p.Next())
	}
	// Output:
	// [split]
	// [align]
	// [merge]
}

func ExampleCycleError() {
	g := dag.New()
	_ = g.AddNode("A", []string{"B"})
	_ = g.AddNode("B", []string{"A"})

	_, err := g.Layers()
	fmt.Println(errors.Is(err, dag.ErrCycle))
	fmt.Println(err)
	// Output:
	// true
	// graph contains a cycle through A, B
}
