// Package gaussian provides the stochastic Gaussian factor node
// N(out | mean, precision), with sum-product and naive-variational
// update rules.
package gaussian

import (
	"github.com/dukex/forney/pkg/graph"
)

// Interface names of a gaussian node.
const (
	InterfaceMean      = "mean"
	InterfacePrecision = "precision"
	InterfaceOut       = "out"
)

// Node is the Gaussian conditional distribution factor.
type Node struct {
	*graph.Base
}

// New creates a gaussian factor node.
func New(id string) *Node {
	node := &Node{Base: graph.NewBase(id, "gaussian", InterfaceMean, InterfacePrecision, InterfaceOut)}
	node.Bind(node)

	return node
}
