package equality

import (
	"fmt"
	"reflect"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
)

var (
	typeGaussian  = reflect.TypeOf(distributions.Gaussian{})
	typeCanonical = reflect.TypeOf(distributions.GaussianCanonical{})
)

// RegisterRules adds the equality-constraint updates. The rules are
// symmetric over ports, so each registers with a wildcard outbound
// position. Registration order encodes the parameterization fallback:
// the canonical form binds first when both inbound messages already
// carry it (the product is a pure precision addition), then the
// mean/variance exact form, then the converting fallback.
func RegisterRules(registry *rules.Registry) {
	registry.MustRegister(rules.Rule{
		Name:     "equality_gaussian_canonical",
		NodeType: "equality",
		Outbound: 0,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typeCanonical, typeCanonical, typeCanonical},
		OutType:  typeCanonical,
		Fn: func(_ graph.Node, outbound int, inbound []message.Payload) (message.Payload, error) {
			first, second, err := operands(outbound, inbound)
			if err != nil {
				return nil, err
			}

			a := first.(distributions.GaussianCanonical)
			b := second.(distributions.GaussianCanonical)

			return distributions.NewGaussianCanonical(
				a.WeightedMean+b.WeightedMean,
				a.Precision+b.Precision,
			), nil
		},
	})

	registry.MustRegister(rules.Rule{
		Name:     "equality_gaussian",
		NodeType: "equality",
		Outbound: 0,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typeGaussian, typeGaussian, typeGaussian},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, outbound int, inbound []message.Payload) (message.Payload, error) {
			first, second, err := operands(outbound, inbound)
			if err != nil {
				return nil, err
			}

			a := first.(distributions.Gaussian)
			b := second.(distributions.Gaussian)
			total := a.Variance + b.Variance

			return distributions.NewGaussian(
				(a.Mean*b.Variance+b.Mean*a.Variance)/total,
				a.Variance*b.Variance/total,
			), nil
		},
	})

	registry.MustRegister(rules.Rule{
		Name:     "equality_convert",
		NodeType: "equality",
		Outbound: 0,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{message.TypeAny, message.TypeAny, message.TypeAny},
		OutType:  typeGaussian,
		Fn: func(_ graph.Node, outbound int, inbound []message.Payload) (message.Payload, error) {
			first, second, err := operands(outbound, inbound)
			if err != nil {
				return nil, err
			}

			product, err := distributions.Multiply(first, second)
			if err != nil {
				return nil, err
			}

			return distributions.EnsureGaussian(product)
		},
	})
}

// operands extracts the two inbound payloads opposite the outbound port.
func operands(outbound int, inbound []message.Payload) (message.Payload, message.Payload, error) {
	var picked []message.Payload

	for idx, payload := range inbound {
		if idx == outbound-1 {
			continue
		}

		if payload == nil {
			return nil, nil, fmt.Errorf("equality update missing inbound message on port %d", idx+1)
		}

		picked = append(picked, payload)
	}

	if len(picked) != 2 {
		return nil, nil, fmt.Errorf("equality update expects two inbound messages, got %d", len(picked))
	}

	return picked[0], picked[1], nil
}
