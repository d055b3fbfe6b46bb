package schedule

import (
	"fmt"
	"log/slog"

	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/rules"
)

// Subgraph is a maximal cluster of nodes and edges grouped under one
// variational factorization assumption. Its internal schedule is a
// full-precision sum-product-shaped schedule confined to the internal
// edges; inbound slots on edges leaving the cluster read those edges'
// marginals. The external schedule lists the boundary nodes whose
// outgoing messages summarize the cluster to the rest of the graph.
type Subgraph struct {
	internalEdges []*graph.Edge
	internalSet   map[*graph.Edge]bool

	// InternalTargets is the raw synthesized interface ordering.
	InternalTargets []*graph.Interface

	// InternalSchedule is the compiled internal schedule.
	InternalSchedule *Schedule

	// ExternalSchedule lists boundary nodes in graph order.
	ExternalSchedule []graph.Node
}

// InternalEdges returns the cluster's edges in insertion order.
func (s *Subgraph) InternalEdges() []*graph.Edge {
	return s.internalEdges
}

// Contains reports whether the edge belongs to this cluster.
func (s *Subgraph) Contains(edge *graph.Edge) bool {
	return s.internalSet[edge]
}

func (s *Subgraph) add(edge *graph.Edge) {
	if s.internalSet[edge] {
		return
	}

	s.internalEdges = append(s.internalEdges, edge)
	s.internalSet[edge] = true
}

func (s *Subgraph) remove(edge *graph.Edge) {
	if !s.internalSet[edge] {
		return
	}

	delete(s.internalSet, edge)

	for idx, candidate := range s.internalEdges {
		if candidate == edge {
			s.internalEdges = append(s.internalEdges[:idx], s.internalEdges[idx+1:]...)

			break
		}
	}
}

func newSubgraph() *Subgraph {
	return &Subgraph{internalSet: make(map[*graph.Edge]bool)}
}

// Factorization partitions a graph's edges into subgraphs. Every edge
// belongs to exactly one subgraph at all times: a fresh factorization
// holds a single subgraph containing every edge, and Factorize splits
// edges out into new clusters.
type Factorization struct {
	graph     *graph.FactorGraph
	logger    *slog.Logger
	subgraphs []*Subgraph
	byEdge    map[*graph.Edge]*Subgraph
}

// NewFactorization creates the trivial factorization: one subgraph
// holding every edge of the graph.
func NewFactorization(g *graph.FactorGraph, logger *slog.Logger) *Factorization {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Factorization{
		graph:  g,
		logger: logger.With(slog.String("module", "factorization")),
		byEdge: make(map[*graph.Edge]*Subgraph),
	}

	root := newSubgraph()
	for _, edge := range g.Edges() {
		root.add(edge)
		f.byEdge[edge] = root
	}

	f.subgraphs = []*Subgraph{root}

	return f
}

// Factorize moves the given edges out of their current subgraphs into a
// new cluster, preserving the partition invariant. Emptied subgraphs are
// dropped.
func (f *Factorization) Factorize(edges ...*graph.Edge) (*Subgraph, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("factorize requires at least one edge")
	}

	cluster := newSubgraph()

	for _, edge := range edges {
		current, ok := f.byEdge[edge]
		if !ok {
			return nil, fmt.Errorf("edge %s does not belong to graph %s", edge, f.graph.ID())
		}

		current.remove(edge)
		cluster.add(edge)
		f.byEdge[edge] = cluster
	}

	kept := f.subgraphs[:0]

	for _, subgraph := range f.subgraphs {
		if len(subgraph.internalEdges) > 0 {
			kept = append(kept, subgraph)
		}
	}

	f.subgraphs = append(kept, cluster)

	return cluster, nil
}

// Subgraphs returns all clusters.
func (f *Factorization) Subgraphs() []*Subgraph {
	return f.subgraphs
}

// SubgraphFor returns the cluster holding the given edge, or nil.
func (f *Factorization) SubgraphFor(edge *graph.Edge) *Subgraph {
	return f.byEdge[edge]
}

// Validate checks the partition invariant: the clusters' internal edge
// sets are pairwise disjoint and their union is the graph's edge set.
func (f *Factorization) Validate() error {
	seen := make(map[*graph.Edge]*Subgraph)

	for _, subgraph := range f.subgraphs {
		for _, edge := range subgraph.internalEdges {
			if owner, dup := seen[edge]; dup && owner != subgraph {
				return fmt.Errorf("edge %s belongs to two subgraphs", edge)
			}

			seen[edge] = subgraph
		}
	}

	for _, edge := range f.graph.Edges() {
		if _, ok := seen[edge]; !ok {
			return fmt.Errorf("edge %s belongs to no subgraph", edge)
		}
	}

	if len(seen) != len(f.graph.Edges()) {
		return fmt.Errorf("factorization covers %d edges, graph has %d", len(seen), len(f.graph.Edges()))
	}

	return nil
}

// Synthesize builds, for every subgraph, the internal interface ordering
// (the dependency walk confined to internal edges, targeting both
// directions of every internal edge) and the external boundary node list.
func (f *Factorization) Synthesize() error {
	for _, subgraph := range f.subgraphs {
		synth := NewSynthesizer(f.graph, f.logger)
		synth.RestrictTo(subgraph.internalEdges)

		goals := make([]*graph.Interface, 0, 2*len(subgraph.internalEdges))
		for _, edge := range subgraph.internalEdges {
			goals = append(goals, edge.Tail(), edge.Head())
		}

		targets, err := synth.Synthesize(goals...)
		if err != nil {
			return fmt.Errorf("internal schedule synthesis failed: %w", err)
		}

		subgraph.InternalTargets = targets
		subgraph.ExternalSchedule = f.boundaryNodes(subgraph)
	}

	return nil
}

// Compile binds every subgraph's internal schedule using variational
// dispatch; slots on edges outside the cluster read marginals.
func (f *Factorization) Compile(compiler *Compiler) error {
	external := make(map[*graph.Edge]bool, len(f.graph.Edges()))

	for _, subgraph := range f.subgraphs {
		for edge := range external {
			delete(external, edge)
		}

		for _, edge := range f.graph.Edges() {
			if !subgraph.Contains(edge) {
				external[edge] = true
			}
		}

		sched, err := compiler.CompileConfined(rules.ModeVariational, subgraph.InternalTargets, external)
		if err != nil {
			return err
		}

		subgraph.InternalSchedule = sched
	}

	return nil
}

// boundaryNodes returns, in graph order, the nodes adjacent to both an
// internal and an external edge of the subgraph.
func (f *Factorization) boundaryNodes(subgraph *Subgraph) []graph.Node {
	var nodes []graph.Node

	for _, node := range f.graph.Nodes() {
		internal, externalEdge := false, false

		for _, iface := range node.Interfaces() {
			if iface.Edge() == nil {
				continue
			}

			if subgraph.Contains(iface.Edge()) {
				internal = true
			} else {
				externalEdge = true
			}
		}

		if internal && externalEdge {
			nodes = append(nodes, node)
		}
	}

	return nodes
}
