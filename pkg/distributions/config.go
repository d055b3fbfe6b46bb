package distributions

import (
	"errors"
	"fmt"

	"github.com/dukex/forney/pkg/message"
)

// FromConfig builds a payload from a declarative configuration map, as
// found in model files and terminal node configs. The "family" key
// selects the type; it defaults to a point mass.
func FromConfig(config map[string]any) (message.Payload, error) {
	family, _ := config["family"].(string)

	switch family {
	case "", "point_mass":
		value, ok := toFloat(config["value"])
		if !ok {
			return nil, errors.New("missing required field 'value'")
		}

		return NewPointMass(value), nil
	case "gaussian":
		mean, okMean := toFloat(config["mean"])
		variance, okVariance := toFloat(config["variance"])

		if !okMean || !okVariance {
			return nil, errors.New("gaussian payload requires 'mean' and 'variance'")
		}

		return NewGaussian(mean, variance), nil
	case "gamma":
		shape, okShape := toFloat(config["shape"])
		rate, okRate := toFloat(config["rate"])

		if !okShape || !okRate {
			return nil, errors.New("gamma payload requires 'shape' and 'rate'")
		}

		return NewGamma(shape, rate), nil
	default:
		return nil, fmt.Errorf("unknown payload family %q", family)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
