package gaussian

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
	typeGamma     = reflect.TypeOf(distributions.Gamma{})
)

// RegisterRules adds the sum-product and naive-variational updates of the
// Gaussian factor. Variational rules read marginals on their inbound
// slots; the compiler arranges that for subgraph-external edges.
func RegisterRules(registry *rules.Registry) {
	registerSumProduct(registry)
	registerVariational(registry)
}

func registerSumProduct(registry *rules.Registry) {
	// Forward with fixed parameters: N(m, 1/w).
	registry.MustRegister(rules.Rule{
		Name:     "gaussian_forward_fixed",
		NodeType: "gaussian",
		Outbound: 3,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typePointMass, typePointMass, nil},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			mean := inbound[0].(distributions.PointMass)
			precision := inbound[1].(distributions.PointMass)

			return distributions.NewGaussian(mean.Value, 1.0/precision.Value), nil
		},
	})

	// Forward with uncertain mean: variances add.
	registry.MustRegister(rules.Rule{
		Name:     "gaussian_forward_uncertain_mean",
		NodeType: "gaussian",
		Outbound: 3,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typeGaussian, typePointMass, nil},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			mean := inbound[0].(distributions.Gaussian)
			precision := inbound[1].(distributions.PointMass)

			return distributions.NewGaussian(mean.Mean, mean.Variance+1.0/precision.Value), nil
		},
	})

	// Backward toward the mean: symmetric to the forward update.
	registry.MustRegister(rules.Rule{
		Name:     "gaussian_backward_mean",
		NodeType: "gaussian",
		Outbound: 1,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{nil, typePointMass, message.TypeAny},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			precision := inbound[1].(distributions.PointMass)

			out, err := distributions.EnsureGaussian(inbound[2])
			if err != nil {
				return nil, err
			}

			return distributions.NewGaussian(out.Mean, out.Variance+1.0/precision.Value), nil
		},
	})
}

func registerVariational(registry *rules.Registry) {
	// Message toward the mean: N(E[out], 1/E[precision]).
	for _, outType := range []reflect.Type{typePointMass, typeGaussian} {
		outType := outType

		registry.MustRegister(rules.Rule{
			Name:     "gaussian_variational_mean",
			NodeType: "gaussian",
			Outbound: 1,
			Mode:     rules.ModeVariational,
			Inbound:  []reflect.Type{nil, typeGamma, outType},
			OutType:  typeGaussian,
			Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
				precision := inbound[1].(distributions.Gamma)

				outMean, err := distributions.MeanOf(inbound[2])
				if err != nil {
					return nil, err
				}

				return distributions.NewGaussian(outMean, 1.0/precision.Mean()), nil
			},
		})
	}

	// Message toward the precision: Gam(3/2, E[(out - mean)^2]/2).
	for _, outType := range []reflect.Type{typePointMass, typeGaussian} {
		outType := outType

		registry.MustRegister(rules.Rule{
			Name:     "gaussian_variational_precision",
			NodeType: "gaussian",
			Outbound: 2,
			Mode:     rules.ModeVariational,
			Inbound:  []reflect.Type{typeGaussian, nil, outType},
			OutType:  typeGamma,
			Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
				mean := inbound[0].(distributions.Gaussian)

				outMean, err := distributions.MeanOf(inbound[2])
				if err != nil {
					return nil, err
				}

				outVariance, err := distributions.VarianceOf(inbound[2])
				if err != nil {
					return nil, err
				}

				spread := (outMean-mean.Mean)*(outMean-mean.Mean) + outVariance + mean.Variance

				return distributions.NewGamma(1.5, spread/2.0), nil
			},
		})
	}

	// Message toward the output: N(E[mean], 1/E[precision]).
	registry.MustRegister(rules.Rule{
		Name:     "gaussian_variational_out",
		NodeType: "gaussian",
		Outbound: 3,
		Mode:     rules.ModeVariational,
		Inbound:  []reflect.Type{typeGaussian, typeGamma, nil},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, _ int, inbound []message.Payload) (message.Payload, error) {
			mean := inbound[0].(distributions.Gaussian)
			precision := inbound[1].(distributions.Gamma)

			return distributions.NewGaussian(mean.Mean, 1.0/precision.Mean()), nil
		},
	})
}
