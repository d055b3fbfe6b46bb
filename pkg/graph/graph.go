package graph

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// FactorGraph is the construction target for nodes and edges. It replaces
// the ambient "current graph" convenience with an explicit builder context
// passed to every construction call.
type FactorGraph struct {
	id     string
	logger *slog.Logger
	nodes  []Node
	byID   map[string]Node
	edges  []*Edge
}

// New creates an empty factor graph with an auto-generated ID.
func New(logger *slog.Logger) *FactorGraph {
	return NewWithID("graph-"+uuid.New().String()[:8], logger)
}

// NewWithID creates an empty factor graph with the given ID.
func NewWithID(id string, logger *slog.Logger) *FactorGraph {
	if logger == nil {
		logger = slog.Default()
	}

	return &FactorGraph{
		id:     id,
		logger: logger.With(slog.String("graph_id", id)),
		byID:   make(map[string]Node),
	}
}

// ID returns the graph identifier.
func (g *FactorGraph) ID() string {
	return g.id
}

// AddNode registers a node with the graph. Node IDs must be unique.
func (g *FactorGraph) AddNode(node Node) error {
	if _, exists := g.byID[node.ID()]; exists {
		return fmt.Errorf("node ID %q already registered in graph %s", node.ID(), g.id)
	}

	g.nodes = append(g.nodes, node)
	g.byID[node.ID()] = node

	return nil
}

// Node returns the node with the given ID, or nil.
func (g *FactorGraph) Node(id string) Node {
	return g.byID[id]
}

// Nodes returns all nodes in insertion order.
func (g *FactorGraph) Nodes() []Node {
	return g.nodes
}

// Edges returns all edges in insertion order.
func (g *FactorGraph) Edges() []*Edge {
	return g.edges
}

// Connect creates an edge from tail to head and wires the partner
// back-references. Both interfaces must be unconnected.
func (g *FactorGraph) Connect(tail, head *Interface) (*Edge, error) {
	if tail == nil || head == nil {
		return nil, fmt.Errorf("connect requires two interfaces in graph %s", g.id)
	}

	if tail.partner != nil {
		return nil, &StructuralError{Interface: tail, Reason: "already connected"}
	}

	if head.partner != nil {
		return nil, &StructuralError{Interface: head, Reason: "already connected"}
	}

	edge := &Edge{
		id:   tail.ID() + "--" + head.ID(),
		tail: tail,
		head: head,
	}

	tail.partner = head
	head.partner = tail
	tail.edge = edge
	head.edge = edge
	g.edges = append(g.edges, edge)

	g.logger.Debug("Connected interfaces",
		slog.String("tail", tail.ID()),
		slog.String("head", head.ID()))

	return edge, nil
}

// Validate checks that every interface of every node is connected. The
// scheduler requires a fully connected graph before synthesis begins.
func (g *FactorGraph) Validate() error {
	for _, node := range g.nodes {
		for _, iface := range node.Interfaces() {
			if iface.Partner() == nil {
				return &StructuralError{Interface: iface, Reason: "disconnected interface"}
			}

			if iface.Partner().Partner() != iface {
				return &StructuralError{Interface: iface, Reason: "asymmetric partner link"}
			}
		}
	}

	return nil
}

// ClearMessages removes every message from every interface, returning the
// graph to its pre-execution state. Cached marginals are cleared as well.
func (g *FactorGraph) ClearMessages() {
	for _, node := range g.nodes {
		for _, iface := range node.Interfaces() {
			iface.ClearMessage()
		}
	}

	for _, edge := range g.edges {
		edge.SetMarginal(nil)
	}
}

// InterfaceByID resolves a "{node_id}:{interface_name}" reference.
func (g *FactorGraph) InterfaceByID(id string) (*Interface, error) {
	nodeID, name, ok := ParseInterfaceID(id)
	if !ok {
		return nil, fmt.Errorf("malformed interface reference %q (want \"node:interface\")", id)
	}

	node := g.Node(nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %q not found in graph %s", nodeID, g.id)
	}

	iface := node.Interface(name)
	if iface == nil {
		return nil, fmt.Errorf("node %q has no interface %q", nodeID, name)
	}

	return iface, nil
}
