package rules

import (
	"fmt"
	"reflect"
)

// DispatchError reports that no registered rule matches the resolved
// inbound type tuple for a node/interface/mode combination. Fatal at
// schedule-compile time.
type DispatchError struct {
	NodeID   string
	NodeType string
	Outbound int
	Mode     Mode
	Inbound  []reflect.Type
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf(
		"no %s rule matches node %q (type %s), outbound interface %d, inbound types %s",
		e.Mode, e.NodeID, e.NodeType, e.Outbound, Signature(e.Inbound))
}
