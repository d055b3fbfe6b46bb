// Package equality provides the three-port equality constraint node: all
// connected variables share one value, and each outbound message is the
// product of the two opposing inbound messages.
package equality

import (
	"github.com/dukex/forney/pkg/graph"
)

// Interface names of an equality node.
const (
	InterfaceA = "a"
	InterfaceB = "b"
	InterfaceC = "c"
)

// Node constrains its three variables to be equal.
type Node struct {
	*graph.Base
}

// New creates an equality constraint node.
func New(id string) *Node {
	node := &Node{Base: graph.NewBase(id, "equality", InterfaceA, InterfaceB, InterfaceC)}
	node.Bind(node)

	return node
}
