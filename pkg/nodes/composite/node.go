// Package composite provides the composite node: a factor wrapping an
// inner factor graph. Computing an outbound message delegates to a cached
// internal schedule instead of a closed-form formula; the strategy is
// fixed at construction.
package composite

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
	"github.com/dukex/forney/pkg/schedule"
)

// Binding ties one outer interface of the composite to the inner terminal
// node standing in for it.
type Binding struct {
	Name     string
	Terminal graph.Terminal
}

// Node wraps an inner factor graph behind ordinary node interfaces.
type Node struct {
	*graph.Base
	inner     *graph.FactorGraph
	bindings  []Binding
	schedules map[int]*schedule.Schedule
	goals     map[int]*graph.Interface
}

// New creates a composite node. The bindings define the outer interfaces
// in argument order; every bound terminal must belong to the inner graph
// and be seeded with a representative value before internal schedules are
// compiled.
func New(id string, inner *graph.FactorGraph, bindings []Binding) (*Node, error) {
	if len(bindings) == 0 {
		return nil, fmt.Errorf("composite %q requires at least one binding", id)
	}

	names := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		if binding.Terminal == nil {
			return nil, fmt.Errorf("composite %q: binding %q has no terminal", id, binding.Name)
		}

		names = append(names, binding.Name)
	}

	node := &Node{
		Base:      graph.NewBase(id, "composite", names...),
		inner:     inner,
		bindings:  bindings,
		schedules: make(map[int]*schedule.Schedule),
		goals:     make(map[int]*graph.Interface),
	}
	node.Bind(node)

	return node, nil
}

// Inner returns the wrapped factor graph.
func (n *Node) Inner() *graph.FactorGraph {
	return n.inner
}

// CompileInternal synthesizes and compiles the internal schedule that
// produces the outbound message on the named outer interface, and caches
// it for dispatch. Call once per outbound interface after the inner graph
// is fully built.
func (n *Node) CompileInternal(name string, registry *rules.Registry, logger *slog.Logger) error {
	outer := n.Interface(name)
	if outer == nil {
		return fmt.Errorf("composite %q has no interface %q", n.ID(), name)
	}

	binding := n.bindings[outer.Index()-1]

	inner := binding.Terminal.Interfaces()[0]
	goal := inner.Partner()

	if goal == nil {
		return &graph.StructuralError{Interface: inner, Reason: "composite binding terminal is disconnected"}
	}

	synth := schedule.NewSynthesizer(n.inner, logger)

	targets, err := synth.Synthesize(goal)
	if err != nil {
		return fmt.Errorf("composite %q internal synthesis for %q failed: %w", n.ID(), name, err)
	}

	compiled, err := schedule.NewCompiler(registry, logger).Compile(rules.ModeSumProduct, targets)
	if err != nil {
		return fmt.Errorf("composite %q internal compile for %q failed: %w", n.ID(), name, err)
	}

	n.schedules[outer.Index()] = compiled
	n.goals[outer.Index()] = goal

	return nil
}

// UpdateRule implements rules.SelfDispatcher: the update pushes the
// inbound payloads into the bound inner terminals, executes the cached
// internal schedule and reads the resulting message off the inner goal
// interface.
func (n *Node) UpdateRule(outbound int, mode rules.Mode, inbound []reflect.Type) (rules.Rule, error) {
	compiled, ok := n.schedules[outbound]
	if !ok {
		return rules.Rule{}, fmt.Errorf(
			"composite %q: internal schedule for outbound interface %d not compiled", n.ID(), outbound)
	}

	goal := n.goals[outbound]

	return rules.Rule{
		Name:     "composite_delegate",
		NodeType: n.Type(),
		Outbound: outbound,
		Mode:     mode,
		Inbound:  inbound,
		OutType:  compiled.OutboundType(goal),
		Fn: func(_ graph.Node, _ int, payloads []message.Payload) (message.Payload, error) {
			for idx, binding := range n.bindings {
				if idx+1 == outbound || payloads[idx] == nil {
					continue
				}

				if err := binding.Terminal.SetValue(payloads[idx]); err != nil {
					return nil, err
				}
			}

			if err := compiled.Execute(); err != nil {
				return nil, err
			}

			result := goal.Message()
			if result == nil || result.Payload == nil {
				return nil, fmt.Errorf("composite %q internal schedule produced no message", n.ID())
			}

			return result.Payload.Clone(), nil
		},
	}, nil
}
