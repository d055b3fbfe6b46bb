// Package gain provides the gain node factory for registry integration.
package gain

import (
	"context"
	"errors"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/protocol"
)

// Factory creates gain node instances.
type Factory struct{}

// Create creates a new gain node instance.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (graph.Node, error) {
	factor, ok := config["factor"].(float64)
	if !ok {
		if asInt, isInt := config["factor"].(int); isInt {
			factor, ok = float64(asInt), true
		}
	}

	if !ok {
		return nil, errors.New("missing required field 'factor'")
	}

	return New(id, factor)
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return "gain"
}

// Name returns the factory name.
func (f *Factory) Name() string {
	return "Gain"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Deterministic scaling factor: out = factor * in"
}

// Schema returns the JSON schema for gain node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"factor": map[string]any{
				"type":        "number",
				"description": "Fixed non-zero scale factor",
			},
		},
		"required": []string{"factor"},
	}
}

// NewFactory creates a new factory instance.
func NewFactory() protocol.NodeFactory {
	return &Factory{}
}
