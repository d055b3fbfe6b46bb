package addition

import (
	"reflect"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
)

var (
	typePointMass = reflect.TypeOf(distributions.PointMass{})
	typeGaussian  = reflect.TypeOf(distributions.Gaussian{})
)

// RegisterRules adds the closed-form sum-product updates of the adder.
// Point-mass rules are registered before the Gaussian fallbacks so the
// cheap exact form binds first.
func RegisterRules(registry *rules.Registry) {
	// Forward: out = in1 + in2.
	registry.MustRegister(rules.Rule{
		Name:     "addition_forward_point_mass",
		NodeType: "addition",
		Outbound: 3,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typePointMass, typePointMass, nil},
		OutType:  typePointMass,
		Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			in1 := inbound[0].(distributions.PointMass)
			in2 := inbound[1].(distributions.PointMass)

			return distributions.NewPointMass(in1.Value + in2.Value), nil
		},
	})

	registry.MustRegister(rules.Rule{
		Name:     "addition_forward_gaussian",
		NodeType: "addition",
		Outbound: 3,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{message.TypeAny, message.TypeAny, nil},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			in1, err := distributions.EnsureGaussian(inbound[0])
			if err != nil {
				return nil, err
			}

			in2, err := distributions.EnsureGaussian(inbound[1])
			if err != nil {
				return nil, err
			}

			return distributions.NewGaussian(in1.Mean+in2.Mean, in1.Variance+in2.Variance), nil
		},
	})

	// Backward toward in1: in1 = out - in2, and symmetrically for in2.
	for _, target := range []struct {
		name     string
		outbound int
		otherIdx int
	}{
		{name: "addition_backward_in1_point_mass", outbound: 1, otherIdx: 1},
		{name: "addition_backward_in2_point_mass", outbound: 2, otherIdx: 0},
	} {
		inbound := []reflect.Type{typePointMass, typePointMass, typePointMass}
		inbound[target.outbound-1] = nil

		otherIdx := target.otherIdx

		registry.MustRegister(rules.Rule{
			Name:     target.name,
			NodeType: "addition",
			Outbound: target.outbound,
			Mode:     rules.ModeSumProduct,
			Inbound:  inbound,
			OutType:  typePointMass,
			Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
				out := inbound[2].(distributions.PointMass)
				other := inbound[otherIdx].(distributions.PointMass)

				return distributions.NewPointMass(out.Value - other.Value), nil
			},
		})
	}

	for _, target := range []struct {
		name     string
		outbound int
		otherIdx int
	}{
		{name: "addition_backward_in1_gaussian", outbound: 1, otherIdx: 1},
		{name: "addition_backward_in2_gaussian", outbound: 2, otherIdx: 0},
	} {
		inbound := []reflect.Type{message.TypeAny, message.TypeAny, message.TypeAny}
		inbound[target.outbound-1] = nil

		otherIdx := target.otherIdx

		registry.MustRegister(rules.Rule{
			Name:     target.name,
			NodeType: "addition",
			Outbound: target.outbound,
			Mode:     rules.ModeSumProduct,
			Inbound:  inbound,
			OutType:  typeGaussian,
			Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
				out, err := distributions.EnsureGaussian(inbound[2])
				if err != nil {
					return nil, err
				}

				other, err := distributions.EnsureGaussian(inbound[otherIdx])
				if err != nil {
					return nil, err
				}

				return distributions.NewGaussian(out.Mean-other.Mean, out.Variance+other.Variance), nil
			},
		})
	}
}
