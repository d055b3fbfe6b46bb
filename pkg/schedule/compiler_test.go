package schedule

import (
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/message"
	"github.com/dukex/forney/pkg/nodes/equality"
	"github.com/dukex/forney/pkg/rules"
	"github.com/dukex/forney/pkg/testutil"
)

var (
	typePointMass = reflect.TypeOf(distributions.PointMass{})
	typeGaussian  = reflect.TypeOf(distributions.Gaussian{})
)

func TestCompile_ChainResolvesTypesStatically(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())
	targets, err := synth.Synthesize(chain.Gain2.Interface("out"))
	require.NoError(t, err)

	compiler := NewCompiler(testutil.NewRuleRegistry(), slog.Default())

	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)
	require.NoError(t, sched.Validate())
	require.Equal(t, 3, sched.Len())

	// Dispatch happened at compile time: every entry carries its rule.
	assert.Equal(t, "terminal_emit", sched.Entries[0].Rule.Name)
	assert.Equal(t, "gain_forward_point_mass", sched.Entries[1].Rule.Name)
	assert.Equal(t, "gain_forward_point_mass", sched.Entries[2].Rule.Name)

	assert.Equal(t, []reflect.Type{typePointMass, nil}, sched.Entries[1].InboundTypes)
	assert.Equal(t, typePointMass, sched.OutboundType(chain.Gain2.Interface("out")))

	require.NoError(t, sched.Execute())

	out := chain.Gain2.Interface("out").Message()
	require.NotNil(t, out)
	assert.Equal(t, distributions.NewPointMass(12.0), out.Payload)
}

func TestCompile_MissingUpstreamEntry(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	compiler := NewCompiler(testutil.NewRuleRegistry(), slog.Default())

	// gain2's inbound type is neither computed by an earlier entry nor
	// present as an initial message.
	_, err = compiler.Compile(rules.ModeSumProduct, []*graph.Interface{chain.Gain2.Interface("out")})

	var compile *CompileError

	require.ErrorAs(t, err, &compile)
	assert.Contains(t, err.Error(), "unresolved")
}

func TestCompile_DispatchFailureNamesTypeTuple(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())
	targets, err := synth.Synthesize(chain.Gain2.Interface("out"))
	require.NoError(t, err)

	// Empty registry: terminals still self-dispatch, the gain lookup fails.
	compiler := NewCompiler(rules.NewRegistry(slog.Default()), slog.Default())

	_, err = compiler.Compile(rules.ModeSumProduct, targets)

	var dispatch *rules.DispatchError

	require.ErrorAs(t, err, &dispatch)
	assert.Equal(t, "gain", dispatch.NodeType)
	assert.Contains(t, err.Error(), "PointMass")
}

func TestCompile_PostProcessorChangesOutboundType(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())
	targets, err := synth.Synthesize(chain.Gain2.Interface("out"))
	require.NoError(t, err)

	compiler := NewCompiler(testutil.NewRuleRegistry(), slog.Default())
	compiler.AttachPostProcessor(chain.Gain2.Interface("out"), PostProcessor{
		Name:    "to_gaussian",
		OutType: typeGaussian,
		Fn: func(payload message.Payload) (message.Payload, error) {
			return distributions.EnsureGaussian(payload)
		},
	})

	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)

	entry := sched.Entries[2]
	assert.Equal(t, typePointMass, entry.IntermediateOutboundType)
	assert.Equal(t, typeGaussian, entry.OutboundType)

	require.NoError(t, sched.Execute())

	out := chain.Gain2.Interface("out").Message()
	require.NotNil(t, out)
	assert.Equal(t, distributions.NewGaussian(12.0, 0.0), out.Payload)
}

func TestCompile_BreakerMessagesSeedTypes(t *testing.T) {
	g, eq1, eq2 := loopGraph(t)

	synth := NewSynthesizer(g, slog.Default())
	synth.AddBreakerSite(eq1.Interface(equality.InterfaceB))
	synth.AddBreakerSite(eq2.Interface(equality.InterfaceB))

	// Breaker messages are initialized by hand; their types flow into
	// the consuming entries' inbound tuples.
	eq1.Interface(equality.InterfaceB).SetMessage(message.New(distributions.NewGaussian(0.0, 1.0)))
	eq2.Interface(equality.InterfaceB).SetMessage(message.New(distributions.NewGaussian(0.0, 1.0)))

	targets, err := synth.Synthesize(eq2.Interface(equality.InterfaceA))
	require.NoError(t, err)

	compiler := NewCompiler(testutil.NewRuleRegistry(), slog.Default())

	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)
	require.Equal(t, 3, sched.Len())

	// Mixed point-mass/gaussian inbound falls back to the converting
	// rule; the all-gaussian tuple binds the exact parameterization.
	assert.Equal(t, "equality_convert", sched.Entries[1].Rule.Name)
	assert.Equal(t, "equality_gaussian", sched.Entries[2].Rule.Name)

	require.NoError(t, sched.Execute())

	out := eq2.Interface(equality.InterfaceA).Message()
	require.NotNil(t, out)
	assert.Equal(t, distributions.NewGaussian(1.0, 0.0), out.Payload)
}

func TestEntry_ExecuteBeforeCompilation(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	entry := &Entry{Node: chain.Gain1, Interface: chain.Gain1.Interface("out")}

	_, err = entry.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before compilation")
}

func TestSchedule_ExecuteWrapsStepFailure(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	registry := rules.NewRegistry(slog.Default())
	failure := errors.New("numerical overflow")
	registry.MustRegister(rules.Rule{
		Name:     "gain_forward_failing",
		NodeType: "gain",
		Outbound: 2,
		Mode:     rules.ModeSumProduct,
		Inbound:  []reflect.Type{typePointMass, nil},
		OutType:  typePointMass,
		Fn: func(_ graph.Node, _ int, _ []message.Payload) (message.Payload, error) {
			return nil, failure
		},
	})

	synth := NewSynthesizer(chain.Graph, slog.Default())
	targets, err := synth.Synthesize(chain.Gain1.Interface("out"))
	require.NoError(t, err)

	compiler := NewCompiler(registry, slog.Default())
	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)

	err = sched.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "schedule step")
}
