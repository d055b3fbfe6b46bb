// Package gain provides the deterministic scaling node: out = factor * in.
package gain

import (
	"errors"

	"github.com/dukex/forney/pkg/graph"
)

// Interface names of a gain node.
const (
	InterfaceIn  = "in"
	InterfaceOut = "out"
)

// Node scales its input by a fixed factor.
type Node struct {
	*graph.Base
	factor float64
}

// New creates a gain node with the given factor. A zero factor is
// rejected: the backward update divides by it.
func New(id string, factor float64) (*Node, error) {
	if factor == 0 {
		return nil, errors.New("gain factor must be non-zero")
	}

	node := &Node{
		Base:   graph.NewBase(id, "gain", InterfaceIn, InterfaceOut),
		factor: factor,
	}
	node.Bind(node)

	return node, nil
}

// Factor returns the fixed scale factor.
func (n *Node) Factor() float64 {
	return n.factor
}
