// Package terminal provides the terminal node factory for registry integration.
package terminal

import (
	"context"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/protocol"
)

// Factory creates terminal node instances.
type Factory struct{}

// Create creates a new terminal node instance.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (graph.Node, error) {
	payload, err := distributions.FromConfig(config)
	if err != nil {
		return nil, err
	}

	return New(id, payload), nil
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return "terminal"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Terminal"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Leaf node holding a constant or observed value; target for read buffers and wraps"
}

// Schema returns the JSON schema for terminal node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"family": map[string]any{
				"type":        "string",
				"description": "Payload family of the held value",
				"enum":        []string{"point_mass", "gaussian", "gamma"},
			},
			"value":    map[string]any{"type": "number", "description": "Point-mass value"},
			"mean":     map[string]any{"type": "number", "description": "Gaussian mean"},
			"variance": map[string]any{"type": "number", "description": "Gaussian variance"},
			"shape":    map[string]any{"type": "number", "description": "Gamma shape"},
			"rate":     map[string]any{"type": "number", "description": "Gamma rate"},
		},
	}
}

// NewFactory creates a new factory instance.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}
