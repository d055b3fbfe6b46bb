// Package engine executes compiled schedules, once or repeatedly over
// sectioned streaming data, driving read/write buffers and wrap feedback
// edges.
package engine

import (
	"github.com/dukex/forney/pkg/message"
)

// ReadBuffer is a consumable queue of payloads feeding one terminal node,
// one element per section. The handle is reference-shared: emptying it
// clears the contents while external references keep observing the same
// object.
type ReadBuffer struct {
	values []message.Payload
}

// Append queues more values.
func (b *ReadBuffer) Append(values ...message.Payload) {
	b.values = append(b.values, values...)
}

// Len returns the number of queued values.
func (b *ReadBuffer) Len() int {
	return len(b.values)
}

// Empty clears the contents, retaining the buffer's identity.
func (b *ReadBuffer) Empty() {
	b.values = b.values[:0]
}

func (b *ReadBuffer) peek() (message.Payload, bool) {
	if len(b.values) == 0 {
		return nil, false
	}

	return b.values[0], true
}

func (b *ReadBuffer) pop() (message.Payload, bool) {
	if len(b.values) == 0 {
		return nil, false
	}

	value := b.values[0]
	b.values = b.values[1:]

	return value, true
}

// WriteBuffer is a growable log of payloads produced on one interface or
// edge, one element per section. Like ReadBuffer it is reference-shared
// between attach time and drain time.
type WriteBuffer struct {
	values []message.Payload
}

// Values returns the logged payloads in section order.
func (b *WriteBuffer) Values() []message.Payload {
	return b.values
}

// Len returns the number of logged payloads.
func (b *WriteBuffer) Len() int {
	return len(b.values)
}

// Empty clears the contents, retaining the buffer's identity.
func (b *WriteBuffer) Empty() {
	b.values = b.values[:0]
}

func (b *WriteBuffer) append(value message.Payload) {
	b.values = append(b.values, value)
}
