// Package registry provides node factory registration for the registry system.
package registry

import (
	"github.com/dukex/forney/pkg/nodes/addition"
	"github.com/dukex/forney/pkg/nodes/equality"
	"github.com/dukex/forney/pkg/nodes/gain"
	"github.com/dukex/forney/pkg/nodes/gaussian"
	"github.com/dukex/forney/pkg/nodes/terminal"
	"github.com/dukex/forney/pkg/rules"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	// Register Terminal node
	r.RegisterNode(terminal.NewFactory())

	// Register Gain node
	r.RegisterNode(gain.NewFactory())

	// Register Addition node
	r.RegisterNode(addition.NewFactory())

	// Register Equality node
	r.RegisterNode(equality.NewFactory())

	// Register Gaussian node
	r.RegisterNode(gaussian.NewFactory())
}

// RegisterDefaultRules registers the closed-form update rules of every
// built-in node type with the given rule registry.
func RegisterDefaultRules(ruleRegistry *rules.Registry) {
	gain.RegisterRules(ruleRegistry)
	addition.RegisterRules(ruleRegistry)
	equality.RegisterRules(ruleRegistry)
	gaussian.RegisterRules(ruleRegistry)
}
