// Package distributions provides the built-in payload families the engine
// is exercised with: point masses, Gaussians in two parameterizations and
// the Gamma family. The scheduling core never references these directly;
// they reach it through the rule registry.
package distributions

import (
	"fmt"

	"github.com/dukex/forney/pkg/message"
)

// PointMass is a degenerate distribution concentrating all mass on one
// value: constants and hard observations.
type PointMass struct {
	Value float64
}

// Family returns the payload family name.
func (PointMass) Family() string {
	return "point_mass"
}

// Clone returns an independent copy.
func (p PointMass) Clone() message.Payload {
	return p
}

// Mean returns the value itself.
func (p PointMass) Mean() float64 {
	return p.Value
}

func (p PointMass) String() string {
	return fmt.Sprintf("δ(%g)", p.Value)
}

// NewPointMass creates a point-mass payload.
func NewPointMass(value float64) PointMass {
	return PointMass{Value: value}
}
