package message

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPayload struct{}

func (stubPayload) Family() string { return "stub" }
func (s stubPayload) Clone() Payload {
	return s
}

func TestType_NilSafe(t *testing.T) {
	var empty *Message

	assert.Nil(t, empty.Type())
	assert.Nil(t, (&Message{}).Type())
	assert.Nil(t, TypeOf(nil))

	msg := New(stubPayload{})
	assert.Equal(t, reflect.TypeOf(stubPayload{}), msg.Type())
	assert.Equal(t, reflect.TypeOf(stubPayload{}), TypeOf(stubPayload{}))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "void", TypeName(nil))
	assert.Equal(t, "any", TypeName(TypeAny))
	assert.Equal(t, "stubPayload", TypeName(reflect.TypeOf(stubPayload{})))
}
