// Package equality provides the equality node factory for registry integration.
package equality

import (
	"context"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/protocol"
)

// Factory creates equality node instances.
type Factory struct{}

// Create creates a new equality node instance.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (graph.Node, error) {
	return New(id), nil
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return "equality"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Equality"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Equality constraint branching one variable into three equal copies"
}

// Schema returns the JSON schema for equality node configuration.
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
