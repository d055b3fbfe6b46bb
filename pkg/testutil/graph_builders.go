// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"log/slog"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/nodes/addition"
	"github.com/dukex/forney/pkg/nodes/gain"
	"github.com/dukex/forney/pkg/nodes/gaussian"
	"github.com/dukex/forney/pkg/nodes/terminal"
	"github.com/dukex/forney/pkg/registry"
	"github.com/dukex/forney/pkg/rules"
)

// NewRuleRegistry creates a rule registry with every built-in rule
// registered.
func NewRuleRegistry() *rules.Registry {
	ruleRegistry := rules.NewRegistry(slog.Default())
	registry.RegisterDefaultRules(ruleRegistry)

	return ruleRegistry
}

// Chain holds the batch scenario fixture: constant -> gain -> gain -> sink.
type Chain struct {
	Graph  *graph.FactorGraph
	Source *terminal.Node
	Gain1  *gain.Node
	Gain2  *gain.Node
	Sink   *terminal.Node
}

// NewChainGraph builds the scenario-A chain: a constant scaled twice.
func NewChainGraph(logger *slog.Logger, value, factor float64) (*Chain, error) {
	g := graph.New(logger)

	source := terminal.New("source", distributions.NewPointMass(value))

	gain1, err := gain.New("gain1", factor)
	if err != nil {
		return nil, err
	}

	gain2, err := gain.New("gain2", factor)
	if err != nil {
		return nil, err
	}

	sink := terminal.New("sink", distributions.NewPointMass(0))

	for _, node := range []graph.Node{source, gain1, gain2, sink} {
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	connections := [][2]*graph.Interface{
		{source.Interface(terminal.InterfaceOut), gain1.Interface(gain.InterfaceIn)},
		{gain1.Interface(gain.InterfaceOut), gain2.Interface(gain.InterfaceIn)},
		{gain2.Interface(gain.InterfaceOut), sink.Interface(terminal.InterfaceOut)},
	}

	for _, pair := range connections {
		if _, err := g.Connect(pair[0], pair[1]); err != nil {
			return nil, err
		}
	}

	return &Chain{Graph: g, Source: source, Gain1: gain1, Gain2: gain2, Sink: sink}, nil
}

// StreamingSum holds the scenario-B fixture: in + delta -> out, with out
// wrapped back to in.
type StreamingSum struct {
	Graph *graph.FactorGraph
	In    *terminal.Node
	Delta *terminal.Node
	Adder *addition.Node
	Out   *terminal.Node
}

// NewStreamingSumGraph builds the scenario-B adder loop.
func NewStreamingSumGraph(logger *slog.Logger) (*StreamingSum, error) {
	g := graph.New(logger)

	in := terminal.New("in", distributions.NewPointMass(0))
	delta := terminal.New("delta", distributions.NewPointMass(0))
	adder := addition.New("adder")
	out := terminal.New("out", distributions.NewPointMass(0))

	for _, node := range []graph.Node{in, delta, adder, out} {
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	connections := [][2]*graph.Interface{
		{in.Interface(terminal.InterfaceOut), adder.Interface(addition.InterfaceIn1)},
		{delta.Interface(terminal.InterfaceOut), adder.Interface(addition.InterfaceIn2)},
		{adder.Interface(addition.InterfaceOut), out.Interface(terminal.InterfaceOut)},
	}

	for _, pair := range connections {
		if _, err := g.Connect(pair[0], pair[1]); err != nil {
			return nil, err
		}
	}

	return &StreamingSum{Graph: g, In: in, Delta: delta, Adder: adder, Out: out}, nil
}

// MeanPrecision holds the variational fixture: a Gaussian factor whose
// mean and precision are both unknown, with one hard observation.
type MeanPrecision struct {
	Graph           *graph.FactorGraph
	Mean            *terminal.Node
	Precision       *terminal.Node
	Observation     *terminal.Node
	Gauss           *gaussian.Node
	MeanEdge        *graph.Edge
	PrecisionEdge   *graph.Edge
	ObservationEdge *graph.Edge
}

// NewMeanPrecisionGraph builds the mean/precision estimation model with
// weak priors and the given observed value. Every edge marginal is
// seeded with its prior, the usual variational initialization.
func NewMeanPrecisionGraph(logger *slog.Logger, observed float64) (*MeanPrecision, error) {
	g := graph.New(logger)

	meanPrior := distributions.NewGaussian(0.0, 100.0)
	precisionPrior := distributions.NewGamma(2.0, 2.0)
	observation := distributions.NewPointMass(observed)

	mean := terminal.New("mean", meanPrior)
	precision := terminal.New("precision", precisionPrior)
	obs := terminal.New("obs", observation)
	gauss := gaussian.New("gauss")

	for _, node := range []graph.Node{mean, precision, obs, gauss} {
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	meanEdge, err := g.Connect(mean.Interface(terminal.InterfaceOut), gauss.Interface(gaussian.InterfaceMean))
	if err != nil {
		return nil, err
	}

	precisionEdge, err := g.Connect(precision.Interface(terminal.InterfaceOut), gauss.Interface(gaussian.InterfacePrecision))
	if err != nil {
		return nil, err
	}

	observationEdge, err := g.Connect(gauss.Interface(gaussian.InterfaceOut), obs.Interface(terminal.InterfaceOut))
	if err != nil {
		return nil, err
	}

	meanEdge.SetMarginal(meanPrior)
	precisionEdge.SetMarginal(precisionPrior)
	observationEdge.SetMarginal(observation)

	return &MeanPrecision{
		Graph:           g,
		Mean:            mean,
		Precision:       precision,
		Observation:     obs,
		Gauss:           gauss,
		MeanEdge:        meanEdge,
		PrecisionEdge:   precisionEdge,
		ObservationEdge: observationEdge,
	}, nil
}

// PointMasses converts raw values into point-mass payloads for buffer
// attachment.
func PointMasses(values ...float64) []message.Payload {
	payloads := make([]message.Payload, 0, len(values))
	for _, value := range values {
		payloads = append(payloads, distributions.NewPointMass(value))
	}

	return payloads
}
