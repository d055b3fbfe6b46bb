package graph

import (
	"fmt"

	"github.com/dukex/forney/pkg/message"
)

// Interface is one port of a node: the unit a message flows through in one
// direction. It is exclusively owned by its node; the partner link is a
// non-owning back-reference maintained by the edge that connects the pair.
type Interface struct {
	node    Node
	name    string
	index   int // 1-based position on the owning node
	partner *Interface
	edge    *Edge
	message *message.Message
}

// Node returns the owning node.
func (i *Interface) Node() Node {
	return i.node
}

// Name returns the interface name, unique within its node.
func (i *Interface) Name() string {
	return i.name
}

// Index returns the 1-based argument position on the owning node.
func (i *Interface) Index() int {
	return i.index
}

// Partner returns the other end of the edge, or nil when disconnected.
func (i *Interface) Partner() *Interface {
	return i.partner
}

// Edge returns the edge this interface is attached to, or nil.
func (i *Interface) Edge() *Edge {
	return i.edge
}

// Message returns the current message, or nil when none has been computed.
func (i *Interface) Message() *message.Message {
	return i.message
}

// SetMessage overwrites the current message. Breaker-site initialization
// and every schedule pass go through here.
func (i *Interface) SetMessage(m *message.Message) {
	i.message = m
}

// ClearMessage removes the current message.
func (i *Interface) ClearMessage() {
	i.message = nil
}

// ID returns a stable "{node_id}:{interface_name}" identifier, mirroring
// the port-ID convention used in model files.
func (i *Interface) ID() string {
	if i.node == nil {
		return ":" + i.name
	}

	return MakeInterfaceID(i.node.ID(), i.name)
}

func (i *Interface) String() string {
	if i.node == nil {
		return fmt.Sprintf("interface %q (unbound)", i.name)
	}

	return fmt.Sprintf("interface %d (%s) of %s(%s)", i.index, i.name, i.node.Type(), i.node.ID())
}

// MakeInterfaceID creates an interface ID from node ID and interface name.
func MakeInterfaceID(nodeID, name string) string {
	return nodeID + ":" + name
}

// ParseInterfaceID splits "{node_id}:{interface_name}" into components.
func ParseInterfaceID(id string) (string, string, bool) {
	for pos := range len(id) {
		if id[pos] == ':' {
			return id[:pos], id[pos+1:], true
		}
	}

	return "", "", false
}
