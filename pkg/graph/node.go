// Package graph defines the structural substrate of a Forney-style factor
// graph: nodes (factors), interfaces (ports) and edges (variables).
package graph

import (
	"fmt"

	"github.com/dukex/forney/pkg/message"
)

// Node represents one factor in the graph. Concrete node kinds (terminal,
// deterministic transform, stochastic factor, equality constraint,
// composite sub-graph) live under pkg/nodes and embed Base.
type Node interface {
	// ID returns the stable identifier of the node.
	ID() string

	// Type returns the node type used as the dispatch key for update rules.
	Type() string

	// Interfaces returns the ordered interface list, one per argument
	// position. The list is fixed at construction.
	Interfaces() []*Interface

	// Interface returns the named interface, or nil when the name is
	// unknown.
	Interface(name string) *Interface
}

// Terminal is implemented by leaf nodes that hold an externally supplied
// value (constants and observed variables). Read buffers and wrap feedback
// edges target terminals.
type Terminal interface {
	Node

	// Value returns the currently held payload.
	Value() message.Payload

	// SetValue replaces the held payload, coercing it to the terminal's
	// declared family when one is set. Returns a TypeMismatchError when
	// the payload cannot be represented.
	SetValue(payload message.Payload) error
}

// Base carries the interface bookkeeping shared by every node kind.
type Base struct {
	id         string
	nodeType   string
	interfaces []*Interface
	names      map[string]int
}

// NewBase creates the common node substrate with one interface per name,
// in argument order. Interface positions are 1-based.
func NewBase(id, nodeType string, names ...string) *Base {
	base := &Base{
		id:       id,
		nodeType: nodeType,
		names:    make(map[string]int, len(names)),
	}

	for idx, name := range names {
		iface := &Interface{name: name, index: idx + 1}
		base.interfaces = append(base.interfaces, iface)
		base.names[name] = idx
	}

	return base
}

// ID returns the node ID.
func (b *Base) ID() string {
	return b.id
}

// Type returns the node type.
func (b *Base) Type() string {
	return b.nodeType
}

// Interfaces returns the ordered interface list.
func (b *Base) Interfaces() []*Interface {
	return b.interfaces
}

// Interface returns the interface with the given name, or nil.
func (b *Base) Interface(name string) *Interface {
	idx, ok := b.names[name]
	if !ok {
		return nil
	}

	return b.interfaces[idx]
}

// Bind sets the owner back-reference on every interface. Concrete nodes
// call it once with themselves after embedding Base.
func (b *Base) Bind(owner Node) {
	for _, iface := range b.interfaces {
		iface.node = owner
	}
}

func (b *Base) String() string {
	return fmt.Sprintf("%s(%s)", b.nodeType, b.id)
}
