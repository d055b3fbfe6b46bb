package composite

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/nodes/gain"
	"github.com/dukex/forney/pkg/nodes/terminal"
	"github.com/dukex/forney/pkg/registry"
	"github.com/dukex/forney/pkg/rules"
	"github.com/dukex/forney/pkg/schedule"
)

func newRuleRegistry() *rules.Registry {
	ruleRegistry := rules.NewRegistry(slog.Default())
	registry.RegisterDefaultRules(ruleRegistry)

	return ruleRegistry
}

// tripler builds a composite wrapping an inner in -> gain(x3) -> out chain.
func tripler(t *testing.T) *Node {
	t.Helper()

	inner := graph.New(slog.Default())

	in := terminal.New("inner_in", distributions.NewPointMass(0.0))
	out := terminal.New("inner_out", distributions.NewPointMass(0.0))

	scale, err := gain.New("inner_gain", 3.0)
	require.NoError(t, err)

	for _, node := range []graph.Node{in, out, scale} {
		require.NoError(t, inner.AddNode(node))
	}

	_, err = inner.Connect(in.Interface(terminal.InterfaceOut), scale.Interface(gain.InterfaceIn))
	require.NoError(t, err)
	_, err = inner.Connect(scale.Interface(gain.InterfaceOut), out.Interface(terminal.InterfaceOut))
	require.NoError(t, err)

	node, err := New("tripler", inner, []Binding{
		{Name: "in", Terminal: in},
		{Name: "out", Terminal: out},
	})
	require.NoError(t, err)

	return node
}

func TestNew_RequiresBindings(t *testing.T) {
	inner := graph.New(slog.Default())

	_, err := New("empty", inner, nil)
	assert.Error(t, err)

	_, err = New("half", inner, []Binding{{Name: "in"}})
	assert.Error(t, err)
}

func TestUpdateRule_BeforeCompile(t *testing.T) {
	node := tripler(t)

	_, err := node.UpdateRule(2, rules.ModeSumProduct, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compiled")
}

func TestCompileInternal_UnknownInterface(t *testing.T) {
	node := tripler(t)

	err := node.CompileInternal("sideways", newRuleRegistry(), slog.Default())
	assert.Error(t, err)
}

func TestDelegation_EndToEnd(t *testing.T) {
	comp := tripler(t)
	ruleRegistry := newRuleRegistry()

	require.NoError(t, comp.CompileInternal("out", ruleRegistry, slog.Default()))

	// Embed the composite in an outer graph and schedule through it as
	// if it were a primitive factor.
	outer := graph.New(slog.Default())
	source := terminal.New("source", distributions.NewPointMass(2.0))
	sink := terminal.New("sink", distributions.NewPointMass(0.0))

	for _, node := range []graph.Node{source, comp, sink} {
		require.NoError(t, outer.AddNode(node))
	}

	_, err := outer.Connect(source.Interface(terminal.InterfaceOut), comp.Interface("in"))
	require.NoError(t, err)
	_, err = outer.Connect(comp.Interface("out"), sink.Interface(terminal.InterfaceOut))
	require.NoError(t, err)

	synth := schedule.NewSynthesizer(outer, slog.Default())
	targets, err := synth.Synthesize(comp.Interface("out"))
	require.NoError(t, err)

	compiler := schedule.NewCompiler(ruleRegistry, slog.Default())
	sched, err := compiler.Compile(rules.ModeSumProduct, targets)
	require.NoError(t, err)

	assert.Equal(t, "composite_delegate", sched.Entries[1].Rule.Name)

	require.NoError(t, sched.Execute())

	msg := comp.Interface("out").Message()
	require.NotNil(t, msg)
	assert.Equal(t, distributions.NewPointMass(6.0), msg.Payload)
}
