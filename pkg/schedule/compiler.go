package schedule

import (
	"log/slog"
	"reflect"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
)

// Compiler turns a raw ordered interface list (from the synthesizer) into
// a schedule of fully bound entries. Types are resolved statically by
// walking the schedule in order, carrying each entry's resolved outbound
// type forward as an inbound type of downstream consumers; rule dispatch
// therefore happens once, at compile time, never during execution.
type Compiler struct {
	registry       *rules.Registry
	logger         *slog.Logger
	postProcessors map[*graph.Interface]*PostProcessor
}

// NewCompiler creates a compiler bound to a rule registry.
func NewCompiler(registry *rules.Registry, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Compiler{
		registry:       registry,
		logger:         logger.With(slog.String("module", "compiler")),
		postProcessors: make(map[*graph.Interface]*PostProcessor),
	}
}

// AttachPostProcessor registers an optional transform applied to every
// payload computed on the given interface.
func (c *Compiler) AttachPostProcessor(iface *graph.Interface, proc PostProcessor) {
	c.postProcessors[iface] = &proc
}

// Compile binds every target interface to a concrete rule, in order. Any
// unresolved inbound type or failed rule lookup aborts compilation with
// the offending entry identified.
func (c *Compiler) Compile(mode rules.Mode, targets []*graph.Interface) (*Schedule, error) {
	return c.compile(mode, targets, nil)
}

// CompileConfined compiles a subgraph-internal schedule: inbound slots
// whose edge belongs to the external set read that edge's cached marginal
// (variational message) instead of the partner's message.
func (c *Compiler) CompileConfined(mode rules.Mode, targets []*graph.Interface, external map[*graph.Edge]bool) (*Schedule, error) {
	return c.compile(mode, targets, external)
}

func (c *Compiler) compile(mode rules.Mode, targets []*graph.Interface, external map[*graph.Edge]bool) (*Schedule, error) {
	sched := &Schedule{Mode: mode}
	resolved := make(map[*graph.Interface]reflect.Type)

	for _, target := range targets {
		entry, err := c.compileEntry(mode, target, resolved, external)
		if err != nil {
			return nil, err
		}

		resolved[target] = entry.OutboundType
		sched.Entries = append(sched.Entries, entry)
	}

	c.logger.Debug("Compiled schedule",
		slog.String("mode", string(mode)),
		slog.Int("entries", sched.Len()))

	return sched, nil
}

type slotGetter func() (message.Payload, error)

func (c *Compiler) compileEntry(
	mode rules.Mode,
	target *graph.Interface,
	resolved map[*graph.Interface]reflect.Type,
	external map[*graph.Edge]bool,
) (*Entry, error) {
	node := target.Node()
	siblings := node.Interfaces()
	inboundTypes := make([]reflect.Type, len(siblings))
	getters := make([]slotGetter, len(siblings))

	for idx, sibling := range siblings {
		if sibling == target {
			continue // the slot being computed stays void
		}

		slotType, getter, err := c.resolveSlot(sibling, resolved, external)
		if err != nil {
			return nil, &CompileError{Interface: target, Reason: err.Error()}
		}

		inboundTypes[idx] = slotType
		getters[idx] = getter
	}

	rule, err := c.registry.Lookup(node, target.Index(), mode, inboundTypes)
	if err != nil {
		return nil, &CompileError{Interface: target, Inbound: inboundTypes, Err: err}
	}

	entry := &Entry{
		Node:                     node,
		Interface:                target,
		OutboundIndex:            target.Index(),
		Mode:                     mode,
		Rule:                     rule,
		InboundTypes:             inboundTypes,
		IntermediateOutboundType: rule.OutType,
		OutboundType:             rule.OutType,
	}

	if proc, ok := c.postProcessors[target]; ok {
		entry.PostProcess = proc
		entry.OutboundType = proc.OutType
	}

	entry.execute = c.buildExecutable(entry, getters)

	return entry, nil
}

// resolveSlot determines, at compile time, the payload type an inbound
// slot will carry when the entry runs, and builds the runtime getter for
// it. Priority: a marginal for external edges, then a type resolved by an
// upstream entry, then a message already present on the interface
// (breaker sites and pre-seeded terminals).
func (c *Compiler) resolveSlot(
	sibling *graph.Interface,
	resolved map[*graph.Interface]reflect.Type,
	external map[*graph.Edge]bool,
) (reflect.Type, slotGetter, error) {
	edge := sibling.Edge()

	if external != nil && edge != nil && external[edge] {
		marginalType := marginalTypeOf(edge)
		if marginalType == nil {
			return nil, nil, &CompileError{
				Interface: sibling,
				Reason:    "external edge has neither a marginal nor a type constraint",
			}
		}

		return marginalType, func() (message.Payload, error) {
			payload := edge.Marginal()
			if payload == nil {
				return nil, &CompileError{Interface: sibling, Reason: "external edge marginal not initialized"}
			}

			return payload, nil
		}, nil
	}

	partner := sibling.Partner()
	if partner == nil {
		return nil, nil, &graph.StructuralError{Interface: sibling, Reason: "disconnected interface"}
	}

	slotType := resolved[partner]
	if slotType == nil {
		if msg := partner.Message(); msg != nil {
			slotType = msg.Type()
		}
	}

	if slotType == nil {
		return nil, nil, &CompileError{
			Interface: partner,
			Reason:    "inbound type unresolved; not computed by an earlier entry and no initial message present",
		}
	}

	return slotType, func() (message.Payload, error) {
		msg := partner.Message()
		if msg == nil || msg.Payload == nil {
			return nil, &CompileError{Interface: partner, Reason: "inbound message missing at execution time"}
		}

		return msg.Payload, nil
	}, nil
}

func (c *Compiler) buildExecutable(entry *Entry, getters []slotGetter) func() (message.Payload, error) {
	return func() (message.Payload, error) {
		inbound := make([]message.Payload, len(getters))

		for idx, getter := range getters {
			if getter == nil {
				continue
			}

			payload, err := getter()
			if err != nil {
				return nil, err
			}

			inbound[idx] = payload
		}

		payload, err := entry.Rule.Fn(entry.Node, entry.OutboundIndex, inbound)
		if err != nil {
			return nil, err
		}

		entry.Interface.SetMessage(message.New(payload))

		if entry.PostProcess != nil {
			payload, err = entry.PostProcess.Fn(payload)
			if err != nil {
				return nil, err
			}

			entry.Interface.SetMessage(message.New(payload))
		}

		return payload, nil
	}
}

func marginalTypeOf(edge *graph.Edge) reflect.Type {
	if payload := edge.Marginal(); payload != nil {
		return reflect.TypeOf(payload)
	}

	return edge.TypeConstraint()
}
