// Package gaussian provides the gaussian node factory for registry integration.
package gaussian

import (
	"context"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/protocol"
)

// Factory creates gaussian node instances.
type Factory struct{}

// Create creates a new gaussian node instance.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (graph.Node, error) {
	return New(id), nil
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return "gaussian"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Gaussian"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Stochastic factor N(out | mean, precision)"
}

// Schema returns the JSON schema for gaussian node configuration.
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
