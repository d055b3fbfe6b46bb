// Package addition provides the adder node factory for registry integration.
package addition

import (
	"context"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/protocol"
)

// Factory creates addition node instances.
type Factory struct{}

// Create creates a new addition node instance.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (graph.Node, error) {
	return New(id), nil
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return "addition"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Addition"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Three-port adder: out = in1 + in2"
}

// Schema returns the JSON schema for addition node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// NewFactory creates a new factory instance.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}
