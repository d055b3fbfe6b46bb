// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/forney/pkg/registry"
	"github.com/dukex/forney/pkg/rules"
)

func registerNodePlugins(reg *registry.Registry, pluginsPath string) error {
	nodePlugins, err := reg.LoadNodePlugins(pluginsPath)
	if err != nil {
		return err
	}

	for _, plugin := range nodePlugins {
		reg.RegisterNode(plugin)
	}

	return nil
}

// NewNodeRegistry builds a node factory registry with every built-in
// factory registered, plus any factories exported by shared objects under
// pluginsPath (skipped when it is empty).
func NewNodeRegistry(log *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes()

	if pluginsPath != "" {
		if err := registerNodePlugins(reg, pluginsPath); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// NewRuleRegistry builds a rule registry with the closed-form updates of
// every built-in node type registered.
func NewRuleRegistry(log *slog.Logger) *rules.Registry {
	ruleRegistry := rules.NewRegistry(log)
	registry.RegisterDefaultRules(ruleRegistry)

	return ruleRegistry
}
