package distributions

import (
	"fmt"
	"math"

	"github.com/dukex/forney/pkg/message"
)

// Gaussian is a univariate normal in mean/variance parameterization.
type Gaussian struct {
	Mean     float64
	Variance float64
}

// Family returns the payload family name.
func (Gaussian) Family() string {
	return "gaussian"
}

// Clone returns an independent copy.
func (g Gaussian) Clone() message.Payload {
	return g
}

// Precision returns the inverse variance.
func (g Gaussian) Precision() float64 {
	return 1.0 / g.Variance
}

func (g Gaussian) String() string {
	return fmt.Sprintf("N(m=%g, v=%g)", g.Mean, g.Variance)
}

// NewGaussian creates a mean/variance Gaussian payload.
func NewGaussian(mean, variance float64) Gaussian {
	return Gaussian{Mean: mean, Variance: variance}
}

// GaussianCanonical is a univariate normal in canonical (weighted-mean /
// precision) parameterization: xi = w*m, w = 1/v. Kept as a distinct
// dispatch type so rules can bind the cheap parameterization when it is
// already available and fall back to explicit conversion otherwise.
type GaussianCanonical struct {
	WeightedMean float64 // xi
	Precision    float64 // w
}

// Family returns the payload family name.
func (GaussianCanonical) Family() string {
	return "gaussian_canonical"
}

// Clone returns an independent copy.
func (g GaussianCanonical) Clone() message.Payload {
	return g
}

func (g GaussianCanonical) String() string {
	return fmt.Sprintf("N(xi=%g, w=%g)", g.WeightedMean, g.Precision)
}

// NewGaussianCanonical creates a canonical-form Gaussian payload.
func NewGaussianCanonical(weightedMean, precision float64) GaussianCanonical {
	return GaussianCanonical{WeightedMean: weightedMean, Precision: precision}
}

// Moments returns the mean/variance form.
func (g GaussianCanonical) Moments() Gaussian {
	return Gaussian{Mean: g.WeightedMean / g.Precision, Variance: 1.0 / g.Precision}
}

// Canonical returns the canonical form of a mean/variance Gaussian.
func (g Gaussian) Canonical() GaussianCanonical {
	w := 1.0 / g.Variance

	return GaussianCanonical{WeightedMean: w * g.Mean, Precision: w}
}

// EnsureGaussian converts any Gaussian-like or point payload to
// mean/variance form. Point masses become zero-variance Gaussians.
func EnsureGaussian(payload message.Payload) (Gaussian, error) {
	switch p := payload.(type) {
	case Gaussian:
		return p, nil
	case GaussianCanonical:
		return p.Moments(), nil
	case PointMass:
		return Gaussian{Mean: p.Value, Variance: 0.0}, nil
	default:
		return Gaussian{}, fmt.Errorf("cannot represent %s as a gaussian", payload.Family())
	}
}

// MeanOf returns the mean of any of the built-in families.
func MeanOf(payload message.Payload) (float64, error) {
	switch p := payload.(type) {
	case PointMass:
		return p.Value, nil
	case Gaussian:
		return p.Mean, nil
	case GaussianCanonical:
		return p.WeightedMean / p.Precision, nil
	case Gamma:
		return p.Shape / p.Rate, nil
	default:
		return math.NaN(), fmt.Errorf("no mean defined for family %s", payload.Family())
	}
}

// VarianceOf returns the variance of any of the built-in families.
func VarianceOf(payload message.Payload) (float64, error) {
	switch p := payload.(type) {
	case PointMass:
		return 0.0, nil
	case Gaussian:
		return p.Variance, nil
	case GaussianCanonical:
		return 1.0 / p.Precision, nil
	case Gamma:
		return p.Shape / (p.Rate * p.Rate), nil
	default:
		return math.NaN(), fmt.Errorf("no variance defined for family %s", payload.Family())
	}
}
