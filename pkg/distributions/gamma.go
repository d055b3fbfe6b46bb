package distributions

import (
	"fmt"

	"github.com/dukex/forney/pkg/message"
)

// Gamma is a gamma distribution in shape/rate parameterization, the
// conjugate family for Gaussian precision in variational updates.
type Gamma struct {
	Shape float64 // a
	Rate  float64 // b
}

// Family returns the payload family name.
func (Gamma) Family() string {
	return "gamma"
}

// Clone returns an independent copy.
func (g Gamma) Clone() message.Payload {
	return g
}

// Mean returns a/b.
func (g Gamma) Mean() float64 {
	return g.Shape / g.Rate
}

func (g Gamma) String() string {
	return fmt.Sprintf("Gam(a=%g, b=%g)", g.Shape, g.Rate)
}

// NewGamma creates a shape/rate gamma payload.
func NewGamma(shape, rate float64) Gamma {
	return Gamma{Shape: shape, Rate: rate}
}
