// Package schedule implements schedule synthesis (the dependency-ordered
// discovery of which messages to compute) and schedule compilation (the
// binding of each step to a concrete typed update rule).
package schedule

import (
	"log/slog"

	"github.com/dukex/forney/pkg/graph"
)

// Synthesizer walks a factor graph depth-first from one or more goal
// interfaces and produces the ordered list of interfaces whose outbound
// message must be computed, every prerequisite before its dependent.
type Synthesizer struct {
	graph        *graph.FactorGraph
	logger       *slog.Logger
	breakerSites map[*graph.Interface]bool
	allowedEdges map[*graph.Edge]bool // nil means every edge is in scope
}

// NewSynthesizer creates a synthesizer over the given graph.
func NewSynthesizer(g *graph.FactorGraph, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Synthesizer{
		graph:        g,
		logger:       logger.With(slog.String("module", "synthesizer")),
		breakerSites: make(map[*graph.Interface]bool),
	}
}

// AddBreakerSite marks an interface whose message will be manually
// initialized instead of computed: the walk treats it as already
// satisfied and never recurses into it. Breaker sites terminate
// otherwise-unbreakable dependency cycles in loopy graphs.
func (s *Synthesizer) AddBreakerSite(iface *graph.Interface) {
	s.breakerSites[iface] = true
}

// RestrictTo confines the walk to the given edge set: sibling interfaces
// whose edge falls outside the set are skipped. This is how a subgraph's
// internal schedule is built with the same algorithm.
func (s *Synthesizer) RestrictTo(edges []*graph.Edge) {
	s.allowedEdges = make(map[*graph.Edge]bool, len(edges))
	for _, edge := range edges {
		s.allowedEdges[edge] = true
	}
}

// Synthesize produces the dependency-ordered interface list for the given
// goal interfaces. An unbroken cycle yields a CycleError; a disconnected
// sibling interface yields a StructuralError.
func (s *Synthesizer) Synthesize(goals ...*graph.Interface) ([]*graph.Interface, error) {
	walk := &dependencyWalk{
		synth:     s,
		scheduled: make(map[*graph.Interface]bool),
		onStack:   make(map[*graph.Interface]bool),
	}

	for _, goal := range goals {
		if walk.scheduled[goal] {
			continue
		}

		if err := walk.visit(goal); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Synthesized schedule",
		slog.Int("goals", len(goals)),
		slog.Int("steps", len(walk.backtrace)))

	return walk.backtrace, nil
}

// dependencyWalk holds the two ordered-set structures of one synthesis
// run: backtrace (interfaces already scheduled, in final order) and the
// active recursion stack (cycle detection only).
type dependencyWalk struct {
	synth     *Synthesizer
	backtrace []*graph.Interface
	scheduled map[*graph.Interface]bool
	stack     []*graph.Interface
	onStack   map[*graph.Interface]bool
}

func (w *dependencyWalk) visit(iface *graph.Interface) error {
	if w.onStack[iface] {
		return &CycleError{Interface: iface, Path: append(append([]*graph.Interface{}, w.stack...), iface)}
	}

	if w.scheduled[iface] {
		return nil
	}

	w.onStack[iface] = true
	w.stack = append(w.stack, iface)

	for _, sibling := range iface.Node().Interfaces() {
		if sibling == iface {
			continue
		}

		if w.synth.allowedEdges != nil && !w.synth.allowedEdges[sibling.Edge()] {
			continue
		}

		partner := sibling.Partner()
		if partner == nil {
			return &graph.StructuralError{Interface: sibling, Reason: "disconnected interface required by schedule"}
		}

		if w.synth.breakerSites[partner] {
			// Manually initialized; satisfied without computation.
			continue
		}

		if !w.scheduled[partner] {
			if err := w.visit(partner); err != nil {
				return err
			}
		}
	}

	delete(w.onStack, iface)
	w.stack = w.stack[:len(w.stack)-1]
	w.scheduled[iface] = true
	w.backtrace = append(w.backtrace, iface)

	return nil
}
