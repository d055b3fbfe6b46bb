// Package config provides declarative model-definition loading: a YAML
// file listing nodes, edges, breaker initializations, schedule goals and
// buffer attachments, built into a factor graph through the node factory
// registry.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/registry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ModelFile represents the structure of a model YAML file.
type ModelFile struct {
	ID       string          `yaml:"id"       validate:"required"`
	Nodes    []NodeConfig    `yaml:"nodes"    validate:"required,min=1,dive"`
	Edges    []EdgeConfig    `yaml:"edges"    validate:"dive"`
	Breakers []BreakerConfig `yaml:"breakers" validate:"dive"`
	Schedule ScheduleConfig  `yaml:"schedule"`
	Buffers  BuffersConfig   `yaml:"buffers"`
	Wraps    []WrapConfig    `yaml:"wraps"    validate:"dive"`
}

// NodeConfig declares one node instance.
type NodeConfig struct {
	ID     string         `yaml:"id"   validate:"required"`
	Type   string         `yaml:"type" validate:"required"`
	Config map[string]any `yaml:"config"`
}

// EdgeConfig declares one edge as a pair of "{node}:{interface}" refs.
type EdgeConfig struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to"   validate:"required"`
}

// BreakerConfig declares a breaker site and its initial message.
type BreakerConfig struct {
	Interface string         `yaml:"interface" validate:"required"`
	Message   map[string]any `yaml:"message"   validate:"required"`
}

// ScheduleConfig names the goal interfaces to schedule for.
type ScheduleConfig struct {
	Goals []string `yaml:"goals"`
}

// BuffersConfig declares streaming buffer attachments.
type BuffersConfig struct {
	Reads  []ReadBufferConfig  `yaml:"reads"  validate:"dive"`
	Writes []WriteBufferConfig `yaml:"writes" validate:"dive"`
}

// ReadBufferConfig feeds a terminal node a queue of point-mass values.
type ReadBufferConfig struct {
	Node   string    `yaml:"node" validate:"required"`
	Values []float64 `yaml:"values"`
}

// WriteBufferConfig logs the message computed on one interface.
type WriteBufferConfig struct {
	Interface string `yaml:"interface" validate:"required"`
}

// WrapConfig declares a section feedback wrap between two terminals.
type WrapConfig struct {
	Head string `yaml:"head" validate:"required"`
	Tail string `yaml:"tail" validate:"required"`
}

// Load reads and validates a model file.
func Load(filepath string) (*ModelFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", filepath, err)
	}

	var model ModelFile
	if err := yaml.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse YAML model: %w", err)
	}

	if err := validator.New().Struct(&model); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", filepath, err)
	}

	return &model, nil
}

// Build constructs the factor graph: instantiate every node through the
// factory registry, connect every edge and initialize breaker messages.
func (m *ModelFile) Build(ctx context.Context, reg *registry.Registry, logger *slog.Logger) (*graph.FactorGraph, error) {
	g := graph.NewWithID(m.ID, logger)

	for _, nodeConfig := range m.Nodes {
		node, err := reg.CreateNode(ctx, nodeConfig.Type, nodeConfig.ID, nodeConfig.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to create node %q: %w", nodeConfig.ID, err)
		}

		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	for _, edgeConfig := range m.Edges {
		tail, err := g.InterfaceByID(edgeConfig.From)
		if err != nil {
			return nil, fmt.Errorf("bad edge source: %w", err)
		}

		head, err := g.InterfaceByID(edgeConfig.To)
		if err != nil {
			return nil, fmt.Errorf("bad edge target: %w", err)
		}

		if _, err := g.Connect(tail, head); err != nil {
			return nil, err
		}
	}

	for _, breaker := range m.Breakers {
		iface, err := g.InterfaceByID(breaker.Interface)
		if err != nil {
			return nil, fmt.Errorf("bad breaker site: %w", err)
		}

		payload, err := distributions.FromConfig(breaker.Message)
		if err != nil {
			return nil, fmt.Errorf("bad breaker message for %s: %w", breaker.Interface, err)
		}

		iface.SetMessage(message.New(payload))
	}

	return g, nil
}

// BreakerInterfaces resolves the declared breaker sites on a built graph.
func (m *ModelFile) BreakerInterfaces(g *graph.FactorGraph) ([]*graph.Interface, error) {
	sites := make([]*graph.Interface, 0, len(m.Breakers))

	for _, breaker := range m.Breakers {
		iface, err := g.InterfaceByID(breaker.Interface)
		if err != nil {
			return nil, err
		}

		sites = append(sites, iface)
	}

	return sites, nil
}

// GoalInterfaces resolves the declared schedule goals on a built graph.
func (m *ModelFile) GoalInterfaces(g *graph.FactorGraph) ([]*graph.Interface, error) {
	goals := make([]*graph.Interface, 0, len(m.Schedule.Goals))

	for _, goal := range m.Schedule.Goals {
		iface, err := g.InterfaceByID(goal)
		if err != nil {
			return nil, err
		}

		goals = append(goals, iface)
	}

	return goals, nil
}
