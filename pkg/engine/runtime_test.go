package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/rules"
	"github.com/dukex/forney/pkg/schedule"
	"github.com/dukex/forney/pkg/testutil"
)

func compileChain(t *testing.T, chain *testutil.Chain) *schedule.Schedule {
	t.Helper()

	synth := schedule.NewSynthesizer(chain.Graph, slog.Default())
	targets, err := synth.Synthesize(chain.Gain2.Interface("out"))
	require.NoError(t, err)

	compiler := schedule.NewCompiler(testutil.NewRuleRegistry(), slog.Default())
	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)

	return sched
}

func compileStreamingSum(t *testing.T, model *testutil.StreamingSum) *schedule.Schedule {
	t.Helper()

	synth := schedule.NewSynthesizer(model.Graph, slog.Default())
	targets, err := synth.Synthesize(model.Adder.Interface("out"))
	require.NoError(t, err)

	compiler := schedule.NewCompiler(testutil.NewRuleRegistry(), slog.Default())
	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)

	return sched
}

func TestExecutePass_BatchChain(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	runtime := NewRuntime(chain.Graph, compileChain(t, chain), slog.Default())

	require.NoError(t, runtime.ExecutePass(context.Background()))

	out := chain.Gain2.Interface("out").Message()
	require.NotNil(t, out)
	assert.Equal(t, distributions.NewPointMass(12.0), out.Payload)
}

func TestRun_StreamingCumulativeSum(t *testing.T) {
	model, err := testutil.NewStreamingSumGraph(slog.Default())
	require.NoError(t, err)

	runtime := NewRuntime(model.Graph, compileStreamingSum(t, model), slog.Default())
	runtime.AttachReadBuffer(model.Delta, testutil.PointMasses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)...)
	results := runtime.AttachInterfaceWriteBuffer(model.Adder.Interface("out"))
	runtime.AddWrap(model.Out, model.In)

	require.NoError(t, runtime.Run(context.Background()))
	assert.Equal(t, 10, runtime.CurrentSection())

	expected := []float64{1, 3, 6, 10, 15, 21, 28, 36, 45, 55}
	require.Equal(t, len(expected), results.Len())

	for idx, payload := range results.Values() {
		pm, ok := payload.(distributions.PointMass)
		require.True(t, ok)
		assert.InDelta(t, expected[idx], pm.Value, 1e-9, "section %d", idx)
	}
}

func TestRun_Deterministic(t *testing.T) {
	first := streamingResults(t)
	second := streamingResults(t)

	assert.Equal(t, first, second)
}

func streamingResults(t *testing.T) []float64 {
	t.Helper()

	model, err := testutil.NewStreamingSumGraph(slog.Default())
	require.NoError(t, err)

	runtime := NewRuntime(model.Graph, compileStreamingSum(t, model), slog.Default())
	runtime.AttachReadBuffer(model.Delta, testutil.PointMasses(2, 4, 6, 8)...)
	results := runtime.AttachInterfaceWriteBuffer(model.Adder.Interface("out"))
	runtime.AddWrap(model.Out, model.In)

	require.NoError(t, runtime.Run(context.Background()))

	values := make([]float64, 0, results.Len())
	for _, payload := range results.Values() {
		values = append(values, payload.(distributions.PointMass).Value)
	}

	return values
}

func TestRun_RequiresReadBuffer(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	runtime := NewRuntime(chain.Graph, compileChain(t, chain), slog.Default())

	err = runtime.Run(context.Background())

	var exhaustion *BufferExhaustionError

	require.ErrorAs(t, err, &exhaustion)
}

func TestStep_DrainedBufferFails(t *testing.T) {
	model, err := testutil.NewStreamingSumGraph(slog.Default())
	require.NoError(t, err)

	runtime := NewRuntime(model.Graph, compileStreamingSum(t, model), slog.Default())
	runtime.AttachReadBuffer(model.Delta, testutil.PointMasses(1)...)

	ctx := context.Background()
	require.NoError(t, runtime.Step(ctx))

	err = runtime.Step(ctx)

	var exhaustion *BufferExhaustionError

	require.ErrorAs(t, err, &exhaustion)
	assert.Contains(t, err.Error(), "delta")
}

func TestStep_WriteTargetWithoutMessage(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	runtime := NewRuntime(chain.Graph, compileChain(t, chain), slog.Default())
	runtime.AttachReadBuffer(chain.Source, testutil.PointMasses(1, 2)...)
	// Backward message, never computed by the forward-only schedule.
	runtime.AttachInterfaceWriteBuffer(chain.Gain1.Interface("in"))

	err = runtime.Step(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message")
}

func TestPrepare_PeeksWithoutConsuming(t *testing.T) {
	model, err := testutil.NewStreamingSumGraph(slog.Default())
	require.NoError(t, err)

	runtime := NewRuntime(model.Graph, nil, slog.Default())
	buffer := runtime.AttachReadBuffer(model.Delta, testutil.PointMasses(7, 8, 9)...)

	ctx := context.Background()
	require.NoError(t, runtime.Prepare(ctx))

	// Seeded from the head of the queue, queue untouched.
	assert.Equal(t, distributions.NewPointMass(7.0), model.Delta.Value())
	assert.Equal(t, 3, buffer.Len())

	// Idempotent.
	require.NoError(t, runtime.Prepare(ctx))
	assert.Equal(t, 3, buffer.Len())
}

func TestBuffers_RetainIdentityAcrossEmpty(t *testing.T) {
	model, err := testutil.NewStreamingSumGraph(slog.Default())
	require.NoError(t, err)

	runtime := NewRuntime(model.Graph, compileStreamingSum(t, model), slog.Default())
	reads := runtime.AttachReadBuffer(model.Delta, testutil.PointMasses(1, 2)...)
	writes := runtime.AttachInterfaceWriteBuffer(model.Adder.Interface("out"))
	runtime.AddWrap(model.Out, model.In)

	require.NoError(t, runtime.Run(context.Background()))
	assert.Equal(t, 0, reads.Len())
	assert.Equal(t, 2, writes.Len())

	runtime.EmptyWriteBuffers()
	runtime.EmptyReadBuffers()

	// Same handles, emptied in place.
	assert.Equal(t, 0, writes.Len())
	assert.Equal(t, 0, reads.Len())

	// The handles keep working after the reset.
	reads.Append(testutil.PointMasses(5)...)
	assert.Equal(t, 1, reads.Len())
	assert.Same(t, reads, runtime.AttachReadBuffer(model.Delta))
}

func TestDetachReadBuffer(t *testing.T) {
	model, err := testutil.NewStreamingSumGraph(slog.Default())
	require.NoError(t, err)

	runtime := NewRuntime(model.Graph, compileStreamingSum(t, model), slog.Default())
	runtime.AttachReadBuffer(model.Delta, testutil.PointMasses(1)...)
	runtime.DetachReadBuffer(model.Delta)

	err = runtime.Run(context.Background())

	var exhaustion *BufferExhaustionError

	require.ErrorAs(t, err, &exhaustion)
}

func TestRunVariational_MeanPrecisionEstimation(t *testing.T) {
	model, err := testutil.NewMeanPrecisionGraph(slog.Default(), 5.0)
	require.NoError(t, err)

	factorization := schedule.NewFactorization(model.Graph, slog.Default())
	_, err = factorization.Factorize(model.MeanEdge)
	require.NoError(t, err)
	_, err = factorization.Factorize(model.PrecisionEdge)
	require.NoError(t, err)

	require.NoError(t, factorization.Synthesize())

	compiler := schedule.NewCompiler(testutil.NewRuleRegistry(), slog.Default())
	require.NoError(t, factorization.Compile(compiler))

	runtime := NewRuntime(model.Graph, nil, slog.Default())
	require.NoError(t, runtime.RunVariational(context.Background(), factorization, 10))

	// The observation clamps its edge.
	assert.Equal(t, distributions.NewPointMass(5.0), model.ObservationEdge.Marginal())

	// The weak prior barely pulls the posterior mean off the observation.
	mean, ok := model.MeanEdge.Marginal().(distributions.Gaussian)
	require.True(t, ok)
	assert.InDelta(t, 5.0, mean.Mean, 0.1)
	assert.Less(t, mean.Variance, 1.5)

	precision, ok := model.PrecisionEdge.Marginal().(distributions.Gamma)
	require.True(t, ok)
	assert.Greater(t, precision.Mean(), 0.0)
}

func TestRunVariational_RequiresSweeps(t *testing.T) {
	model, err := testutil.NewMeanPrecisionGraph(slog.Default(), 5.0)
	require.NoError(t, err)

	factorization := schedule.NewFactorization(model.Graph, slog.Default())
	runtime := NewRuntime(model.Graph, nil, slog.Default())

	assert.Error(t, runtime.RunVariational(context.Background(), factorization, 0))
}
