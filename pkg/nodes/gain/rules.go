package gain

import (
	"fmt"
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

// RegisterRules adds the closed-form sum-product updates of the gain node.
func RegisterRules(registry *rules.Registry) {
	registry.MustRegister(rules.Rule{
		Name:     "gain_forward_point_mass",
		NodeType: "gain",
		Outbound: 2,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typePointMass, nil},
		OutType:  typePointMass,
		Fn: func(node graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			factor, err := factorOf(node)
			if err != nil {
				return nil, err
			}

			in := inbound[0].(distributions.PointMass)

			return distributions.NewPointMass(factor * in.Value), nil
		},
	})

	registry.MustRegister(rules.Rule{
		Name:     "gain_backward_point_mass",
		NodeType: "gain",
		Outbound: 1,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{nil, typePointMass},
		OutType:  typePointMass,
		Fn: func(node graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			factor, err := factorOf(node)
			if err != nil {
				return nil, err
			}

			out := inbound[1].(distributions.PointMass)

			return distributions.NewPointMass(out.Value / factor), nil
		},
	})

	registry.MustRegister(rules.Rule{
		Name:     "gain_forward_gaussian",
		NodeType: "gain",
		Outbound: 2,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typeGaussian, nil},
		OutType:  typeGaussian,
		Fn: func(node graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			factor, err := factorOf(node)
			if err != nil {
				return nil, err
			}

			in := inbound[0].(distributions.Gaussian)

			return distributions.NewGaussian(factor*in.Mean, factor*factor*in.Variance), nil
		},
	})

	registry.MustRegister(rules.Rule{
		Name:     "gain_backward_gaussian",
		NodeType: "gain",
		Outbound: 1,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{nil, typeGaussian},
		OutType:  typeGaussian,
		Fn: func(node graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			factor, err := factorOf(node)
			if err != nil {
				return nil, err
			}

			out := inbound[1].(distributions.Gaussian)

			return distributions.NewGaussian(out.Mean/factor, out.Variance/(factor*factor)), nil
		},
	})
}

func factorOf(node graph.Node) (float64, error) {
	gainNode, ok := node.(*Node)
	if !ok {
		return 0, fmt.Errorf("gain rule applied to %T", node)
	}

	return gainNode.Factor(), nil
}
