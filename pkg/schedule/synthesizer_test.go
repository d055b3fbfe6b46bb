package schedule

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/nodes/equality"
	"github.com/dukex/forney/pkg/nodes/terminal"
	"github.com/dukex/forney/pkg/testutil"
)

func interfaceIDs(ifaces []*graph.Interface) []string {
	ids := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		ids = append(ids, iface.ID())
	}

	return ids
}

func TestSynthesize_ChainOrder(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())

	targets, err := synth.Synthesize(chain.Gain2.Interface("out"))
	require.NoError(t, err)

	assert.Equal(t, []string{"source:out", "gain1:out", "gain2:out"}, interfaceIDs(targets))
}

func TestSynthesize_BackwardGoal(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())

	targets, err := synth.Synthesize(chain.Gain1.Interface("in"))
	require.NoError(t, err)

	assert.Equal(t, []string{"sink:out", "gain2:in", "gain1:in"}, interfaceIDs(targets))
}

func TestSynthesize_SharedPrerequisiteScheduledOnce(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())

	// The second goal is a prerequisite of the first; it must appear
	// exactly once, before its dependent.
	targets, err := synth.Synthesize(chain.Gain2.Interface("out"), chain.Gain1.Interface("out"))
	require.NoError(t, err)

	assert.Equal(t, []string{"source:out", "gain1:out", "gain2:out"}, interfaceIDs(targets))
}

// loopGraph builds two equality constraints joined by a pair of parallel
// edges, the smallest graph whose message dependencies genuinely cycle.
func loopGraph(t *testing.T) (*graph.FactorGraph, *equality.Node, *equality.Node) {
	t.Helper()

	g := graph.New(slog.Default())

	t1 := terminal.New("t1", distributions.NewPointMass(1.0))
	t2 := terminal.New("t2", distributions.NewPointMass(2.0))
	eq1 := equality.New("eq1")
	eq2 := equality.New("eq2")

	for _, node := range []graph.Node{t1, t2, eq1, eq2} {
		require.NoError(t, g.AddNode(node))
	}

	pairs := [][2]*graph.Interface{
		{t1.Interface(terminal.InterfaceOut), eq1.Interface(equality.InterfaceA)},
		{t2.Interface(terminal.InterfaceOut), eq2.Interface(equality.InterfaceA)},
		{eq1.Interface(equality.InterfaceB), eq2.Interface(equality.InterfaceB)},
		{eq1.Interface(equality.InterfaceC), eq2.Interface(equality.InterfaceC)},
	}

	for _, pair := range pairs {
		_, err := g.Connect(pair[0], pair[1])
		require.NoError(t, err)
	}

	return g, eq1, eq2
}

func TestSynthesize_UnbrokenCycle(t *testing.T) {
	g, _, eq2 := loopGraph(t)

	synth := NewSynthesizer(g, slog.Default())

	_, err := synth.Synthesize(eq2.Interface(equality.InterfaceA))

	var cycle *CycleError

	require.ErrorAs(t, err, &cycle)
	assert.NotEmpty(t, cycle.Path)
	assert.Contains(t, err.Error(), "breaker site")
}

func TestSynthesize_BreakerSitesBreakCycle(t *testing.T) {
	g, eq1, eq2 := loopGraph(t)

	synth := NewSynthesizer(g, slog.Default())
	// The loop carries a dependency cycle in each message direction;
	// one initialized breaker message per direction dissolves both.
	synth.AddBreakerSite(eq1.Interface(equality.InterfaceB))
	synth.AddBreakerSite(eq2.Interface(equality.InterfaceB))

	targets, err := synth.Synthesize(eq2.Interface(equality.InterfaceA))
	require.NoError(t, err)

	assert.Equal(t, []string{"t1:out", "eq1:c", "eq2:a"}, interfaceIDs(targets))
}

func TestSynthesize_RestrictedToEdgeSubset(t *testing.T) {
	chain, err := testutil.NewChainGraph(slog.Default(), 3.0, 2.0)
	require.NoError(t, err)

	synth := NewSynthesizer(chain.Graph, slog.Default())

	var confined []*graph.Edge

	for _, edge := range chain.Graph.Edges() {
		if edge.Tail().Node().ID() != "source" {
			confined = append(confined, edge)
		}
	}

	synth.RestrictTo(confined)

	targets, err := synth.Synthesize(chain.Gain2.Interface("out"))
	require.NoError(t, err)

	// The source edge is out of scope, so gain1 has no prerequisites.
	assert.Equal(t, []string{"gain1:out", "gain2:out"}, interfaceIDs(targets))
}

func TestSynthesize_DisconnectedSibling(t *testing.T) {
	g := graph.New(slog.Default())
	eq := equality.New("eq")
	src := terminal.New("src", distributions.NewPointMass(1.0))

	require.NoError(t, g.AddNode(eq))
	require.NoError(t, g.AddNode(src))

	_, err := g.Connect(src.Interface(terminal.InterfaceOut), eq.Interface(equality.InterfaceA))
	require.NoError(t, err)

	synth := NewSynthesizer(g, slog.Default())

	_, err = synth.Synthesize(eq.Interface(equality.InterfaceB))

	var structural *graph.StructuralError

	require.ErrorAs(t, err, &structural)
}
