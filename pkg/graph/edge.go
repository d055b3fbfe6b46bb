package graph

import (
	"fmt"
	"reflect"

	"github.com/dukex/forney/pkg/message"
)

// Edge is an ordered pair of interfaces (tail -> head) representing one
// random variable. The forward message lives on the tail interface, the
// backward message on the head interface.
type Edge struct {
	id             string
	tail           *Interface
	head           *Interface
	typeConstraint reflect.Type
	marginal       message.Payload
}

// ID returns the edge identifier, "{tail_id}--{head_id}".
func (e *Edge) ID() string {
	return e.id
}

// Tail returns the source interface.
func (e *Edge) Tail() *Interface {
	return e.tail
}

// Head returns the sink interface.
func (e *Edge) Head() *Interface {
	return e.head
}

// TypeConstraint returns the declared payload type for this variable, or
// nil when unconstrained.
func (e *Edge) TypeConstraint() reflect.Type {
	return e.typeConstraint
}

// SetTypeConstraint declares the payload type expected on this edge.
func (e *Edge) SetTypeConstraint(t reflect.Type) {
	e.typeConstraint = t
}

// Marginal returns the cached marginal distribution, or nil.
func (e *Edge) Marginal() message.Payload {
	return e.marginal
}

// SetMarginal overwrites the cached marginal distribution.
func (e *Edge) SetMarginal(payload message.Payload) {
	e.marginal = payload
}

// ForwardMessage returns the message flowing tail -> head, or nil.
func (e *Edge) ForwardMessage() *message.Message {
	return e.tail.Message()
}

// BackwardMessage returns the message flowing head -> tail, or nil.
func (e *Edge) BackwardMessage() *message.Message {
	return e.head.Message()
}

func (e *Edge) String() string {
	return fmt.Sprintf("edge %s -> %s", e.tail.ID(), e.head.ID())
}
