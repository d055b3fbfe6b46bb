// Package addition provides the three-port adder node: out = in1 + in2.
package addition

import (
	"github.com/dukex/forney/pkg/graph"
)

// Interface names of an addition node.
const (
	InterfaceIn1 = "in1"
	InterfaceIn2 = "in2"
	InterfaceOut = "out"
)

// Node adds its two inputs.
type Node struct {
	*graph.Base
}

// New creates an addition node.
func New(id string) *Node {
	node := &Node{Base: graph.NewBase(id, "addition", InterfaceIn1, InterfaceIn2, InterfaceOut)}
	node.Bind(node)

	return node
}
