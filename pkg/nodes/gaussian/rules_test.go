package gaussian

import (
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/rules"
)

func newRegistry() *rules.Registry {
	registry := rules.NewRegistry(slog.Default())
	RegisterRules(registry)

	return registry
}

func TestForwardFixed(t *testing.T) {
	node := New("gauss")

	rule, err := newRegistry().Lookup(node, 3, rules.ModeSumProduct,
		[]reflect.Type{typePointMass, typePointMass, nil})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_forward_fixed", rule.Name)

	payload, err := rule.Fn(node, 3, []message.Payload{
		distributions.NewPointMass(2.0), distributions.NewPointMass(4.0), nil,
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewGaussian(2.0, 0.25), payload)
}

func TestForwardUncertainMean(t *testing.T) {
	node := New("gauss")

	rule, err := newRegistry().Lookup(node, 3, rules.ModeSumProduct,
		[]reflect.Type{typeGaussian, typePointMass, nil})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_forward_uncertain_mean", rule.Name)

	payload, err := rule.Fn(node, 3, []message.Payload{
		distributions.NewGaussian(2.0, 1.0), distributions.NewPointMass(4.0), nil,
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewGaussian(2.0, 1.25), payload)
}

func TestBackwardMean(t *testing.T) {
	node := New("gauss")

	rule, err := newRegistry().Lookup(node, 1, rules.ModeSumProduct,
		[]reflect.Type{nil, typePointMass, typePointMass})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_backward_mean", rule.Name)

	payload, err := rule.Fn(node, 1, []message.Payload{
		nil, distributions.NewPointMass(2.0), distributions.NewPointMass(5.0),
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewGaussian(5.0, 0.5), payload)
}

func TestVariationalMean(t *testing.T) {
	node := New("gauss")

	rule, err := newRegistry().Lookup(node, 1, rules.ModeVariational,
		[]reflect.Type{nil, typeGamma, typePointMass})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_variational_mean", rule.Name)

	payload, err := rule.Fn(node, 1, []message.Payload{
		nil, distributions.NewGamma(4.0, 2.0), distributions.NewPointMass(3.0),
	})
	require.NoError(t, err)

	// N(E[out], 1/E[w]) with E[w] = 2.
	assert.Equal(t, distributions.NewGaussian(3.0, 0.5), payload)
}

func TestVariationalPrecision(t *testing.T) {
	node := New("gauss")

	rule, err := newRegistry().Lookup(node, 2, rules.ModeVariational,
		[]reflect.Type{typeGaussian, nil, typePointMass})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_variational_precision", rule.Name)

	payload, err := rule.Fn(node, 2, []message.Payload{
		distributions.NewGaussian(1.0, 2.0), nil, distributions.NewPointMass(3.0),
	})
	require.NoError(t, err)

	// spread = (3-1)^2 + 0 + 2 = 6.
	g, ok := payload.(distributions.Gamma)
	require.True(t, ok)
	assert.InDelta(t, 1.5, g.Shape, 1e-12)
	assert.InDelta(t, 3.0, g.Rate, 1e-12)
}

func TestVariationalOut(t *testing.T) {
	node := New("gauss")

	rule, err := newRegistry().Lookup(node, 3, rules.ModeVariational,
		[]reflect.Type{typeGaussian, typeGamma, nil})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_variational_out", rule.Name)

	payload, err := rule.Fn(node, 3, []message.Payload{
		distributions.NewGaussian(1.0, 2.0), distributions.NewGamma(4.0, 2.0), nil,
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewGaussian(1.0, 0.5), payload)
}
