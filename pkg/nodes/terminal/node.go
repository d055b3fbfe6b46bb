// Package terminal provides the terminal (constant/observed) leaf node:
// the attachment point for read buffers, wrap feedback edges and hard
// observations.
package terminal

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
)

// InterfaceOut is the single interface of a terminal node.
const InterfaceOut = "out"

// Node holds one externally supplied payload and emits it as its only
// outbound message. The held value is overwritten by read buffers and
// wrap propagation between schedule passes.
type Node struct {
	*graph.Base
	value      message.Payload
	constraint reflect.Type
}

// New creates a terminal holding the given initial payload.
func New(id string, value message.Payload) *Node {
	node := &Node{
		Base:  graph.NewBase(id, "terminal", InterfaceOut),
		value: value,
	}
	node.Bind(node)

	return node
}

// NewConstrained creates a terminal that only holds payloads of the given
// type, coercing compatible families on SetValue.
func NewConstrained(id string, value message.Payload, constraint reflect.Type) (*Node, error) {
	node := New(id, nil)
	node.constraint = constraint

	if err := node.SetValue(value); err != nil {
		return nil, err
	}

	return node, nil
}

// Value returns the currently held payload.
func (n *Node) Value() message.Payload {
	return n.value
}

// SetValue replaces the held payload. With a declared constraint the
// payload is coerced when a conversion exists; otherwise the call fails
// with a TypeMismatchError.
func (n *Node) SetValue(payload message.Payload) error {
	if payload == nil {
		return fmt.Errorf("terminal %q cannot hold a nil payload", n.ID())
	}

	if n.constraint == nil || reflect.TypeOf(payload) == n.constraint {
		n.value = payload

		return nil
	}

	coerced, err := coerce(payload, n.constraint)
	if err != nil {
		return &graph.TypeMismatchError{NodeID: n.ID(), Want: n.constraint, Got: reflect.TypeOf(payload)}
	}

	n.value = coerced

	return nil
}

// UpdateRule implements rules.SelfDispatcher: a terminal's only update
// emits the held value, and its output type is the type of that value,
// known only at schedule-compile time.
func (n *Node) UpdateRule(outbound int, mode rules.Mode, inbound []reflect.Type) (rules.Rule, error) {
	if outbound != 1 || len(inbound) != 1 {
		return rules.Rule{}, fmt.Errorf("terminal %q has a single interface; got outbound %d", n.ID(), outbound)
	}

	if n.value == nil {
		return rules.Rule{}, errors.New("terminal " + n.ID() + " has no value; seed it before compiling")
	}

	return rules.Rule{
		Name:     "terminal_emit",
		NodeType: n.Type(),
		Outbound: 1,
		Mode:     mode,
		Inbound:  []reflect.Type{nil},
		OutType:  reflect.TypeOf(n.value),
		Fn: func(_ graph.Node, _ int, _ []message.Payload) (message.Payload, error) {
			if n.value == nil {
				return nil, errors.New("terminal " + n.ID() + " has no value")
			}

			return n.value.Clone(), nil
		},
	}, nil
}

// coerce converts payload families where a lossless (or canonical)
// conversion exists.
func coerce(payload message.Payload, want reflect.Type) (message.Payload, error) {
	switch want {
	case reflect.TypeOf(distributions.Gaussian{}):
		return distributions.EnsureGaussian(payload)
	case reflect.TypeOf(distributions.GaussianCanonical{}):
		g, err := distributions.EnsureGaussian(payload)
		if err != nil {
			return nil, err
		}

		return g.Canonical(), nil
	case reflect.TypeOf(distributions.PointMass{}):
		if pm, ok := payload.(distributions.PointMass); ok {
			return pm, nil
		}

		return nil, fmt.Errorf("cannot narrow %s to a point mass", payload.Family())
	default:
		return nil, fmt.Errorf("no conversion to %s", want.Name())
	}
}
