package graph

import (
	"fmt"
	"reflect"
)

// StructuralError reports a malformed graph: a disconnected required
// interface or a broken partner pairing. Fatal at synthesis time.
type StructuralError struct {
	Interface *Interface
	Reason    string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s: %s", e.Interface, e.Reason)
}

// TypeMismatchError reports a terminal node asked to hold or produce a
// value of an incompatible payload type. Fatal, local to that node.
type TypeMismatchError struct {
	NodeID string
	Want   reflect.Type
	Got    reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on terminal %q: cannot represent %s as %s",
		e.NodeID, e.Got.Name(), e.Want.Name())
}
