package addition

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

func TestForwardPointMass(t *testing.T) {
	node := New("adder")

	rule, err := newRegistry().Lookup(node, 3, rules.ModeSumProduct,
		[]reflect.Type{typePointMass, typePointMass, nil})
	require.NoError(t, err)
	assert.Equal(t, "addition_forward_point_mass", rule.Name)

	payload, err := rule.Fn(node, 3, []message.Payload{
		distributions.NewPointMass(2.0), distributions.NewPointMass(3.0), nil,
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewPointMass(5.0), payload)
}

func TestForwardGaussian(t *testing.T) {
	node := New("adder")

	rule, err := newRegistry().Lookup(node, 3, rules.ModeSumProduct,
		[]reflect.Type{typeGaussian, typeGaussian, nil})
	require.NoError(t, err)
	assert.Equal(t, "addition_forward_gaussian", rule.Name)

	payload, err := rule.Fn(node, 3, []message.Payload{
		distributions.NewGaussian(1.0, 2.0), distributions.NewGaussian(3.0, 4.0), nil,
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewGaussian(4.0, 6.0), payload)
}

func TestForwardMixedFallsBackToGaussian(t *testing.T) {
	node := New("adder")

	// Point mass plus Gaussian: no exact rule, the converting fallback
	// treats the point mass as a zero-variance Gaussian.
	rule, err := newRegistry().Lookup(node, 3, rules.ModeSumProduct,
		[]reflect.Type{typePointMass, typeGaussian, nil})
	require.NoError(t, err)
	assert.Equal(t, "addition_forward_gaussian", rule.Name)

	payload, err := rule.Fn(node, 3, []message.Payload{
		distributions.NewPointMass(1.0), distributions.NewGaussian(3.0, 4.0), nil,
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewGaussian(4.0, 4.0), payload)
}

func TestBackwardPointMass(t *testing.T) {
	node := New("adder")
	registry := newRegistry()

	rule, err := registry.Lookup(node, 1, rules.ModeSumProduct,
		[]reflect.Type{nil, typePointMass, typePointMass})
	require.NoError(t, err)
	assert.Equal(t, "addition_backward_in1_point_mass", rule.Name)

	payload, err := rule.Fn(node, 1, []message.Payload{
		nil, distributions.NewPointMass(3.0), distributions.NewPointMass(10.0),
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewPointMass(7.0), payload)

	rule, err = registry.Lookup(node, 2, rules.ModeSumProduct,
		[]reflect.Type{typePointMass, nil, typePointMass})
	require.NoError(t, err)
	assert.Equal(t, "addition_backward_in2_point_mass", rule.Name)

	payload, err = rule.Fn(node, 2, []message.Payload{
		distributions.NewPointMass(2.0), nil, distributions.NewPointMass(10.0),
	})
	require.NoError(t, err)
	assert.Equal(t, distributions.NewPointMass(8.0), payload)
}

func TestBackwardGaussian(t *testing.T) {
	node := New("adder")

	rule, err := newRegistry().Lookup(node, 1, rules.ModeSumProduct,
		[]reflect.Type{nil, typeGaussian, typeGaussian})
	require.NoError(t, err)
	assert.Equal(t, "addition_backward_in1_gaussian", rule.Name)

	payload, err := rule.Fn(node, 1, []message.Payload{
		nil, distributions.NewGaussian(1.0, 2.0), distributions.NewGaussian(5.0, 3.0),
	})
	require.NoError(t, err)

	// Subtraction of means, addition of variances.
	assert.Equal(t, distributions.NewGaussian(4.0, 5.0), payload)
}
