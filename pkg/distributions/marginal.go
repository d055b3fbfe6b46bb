package distributions

import (
	"fmt"

	"github.com/dukex/forney/pkg/message"
)

// Multiply combines two opposing messages on an edge into its marginal.
// This is the same product the equality constraint applies: Gaussians
// combine precision-weighted, gammas add shape, and point masses absorb
// everything.
func Multiply(a, b message.Payload) (message.Payload, error) {
	if pm, ok := a.(PointMass); ok {
		return pm, nil
	}

	if pm, ok := b.(PointMass); ok {
		return pm, nil
	}

	if ga, ok := a.(Gamma); ok {
		gb, ok := b.(Gamma)
		if !ok {
			return nil, fmt.Errorf("cannot multiply %s with %s", a.Family(), b.Family())
		}

		return Gamma{Shape: ga.Shape + gb.Shape - 1.0, Rate: ga.Rate + gb.Rate}, nil
	}

	ca, err := EnsureGaussian(a)
	if err != nil {
		return nil, err
	}

	cb, err := EnsureGaussian(b)
	if err != nil {
		return nil, err
	}

	wa := ca.Canonical()
	wb := cb.Canonical()

	return GaussianCanonical{
		WeightedMean: wa.WeightedMean + wb.WeightedMean,
		Precision:    wa.Precision + wb.Precision,
	}.Moments(), nil
}
