// Package message defines the typed payload carried across factor-graph interfaces.
package message

import (
	"reflect"
)

// Payload is the polymorphic value carried by a Message: a probability
// distribution or a point estimate. Concrete payload types live in the
// distribution catalog; the engine only inspects their reflect.Type for
// rule dispatch.
type Payload interface {
	// Family returns a short stable name for the payload family
	// (e.g. "gaussian", "point_mass").
	Family() string

	// Clone returns an independent copy of the payload.
	Clone() Payload
}

// Message wraps one payload attached to exactly one interface at a time.
// It is overwritten, not accumulated, on every schedule pass.
type Message struct {
	Payload Payload
}

// New creates a message around the given payload.
func New(payload Payload) *Message {
	return &Message{Payload: payload}
}

// Type returns the concrete payload type, or nil for an empty message.
func (m *Message) Type() reflect.Type {
	if m == nil || m.Payload == nil {
		return nil
	}

	return reflect.TypeOf(m.Payload)
}

// TypeOf returns the dispatch type of a payload value.
func TypeOf(payload Payload) reflect.Type {
	if payload == nil {
		return nil
	}

	return reflect.TypeOf(payload)
}

// TypeAny is the wildcard inbound type: a rule slot declared as TypeAny
// accepts any payload. Used by fallback rules and self-dispatching nodes.
var TypeAny = reflect.TypeOf((*Payload)(nil)).Elem()

// TypeName renders a payload type for error messages and signatures.
// The nil type (the slot being computed) renders as "void".
func TypeName(t reflect.Type) string {
	switch t {
	case nil:
		return "void"
	case TypeAny:
		return "any"
	default:
		return t.Name()
	}
}
