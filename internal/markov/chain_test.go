package markov

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/jaggdy/internal/agenda"
	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/logging"
	"github.com/nvandessel/jaggdy/internal/logic"
)

var bit = []logic.Interpretation{logic.Bits(0), logic.Bits(1)}

func newGraph(t *testing.T, models []logic.Interpretation, conns []belief.Connection, beliefs ...logic.Interpretation) *belief.Graph {
	t.Helper()
	g, err := belief.New(models, conns, beliefs)
	require.NoError(t, err)
	return g
}

func newChain(t *testing.T, g *belief.Graph) *Chain {
	t.Helper()
	c, err := New(g, DefaultConfig())
	require.NoError(t, err)
	return c
}

// thesisGraph is three agents on [p, q, r] with r <-> (p -> q).
func thesisGraph(t *testing.T) *belief.Graph {
	t.Helper()
	cm, err := agenda.New(
		[]logic.Proposition{logic.P, logic.Q, logic.R},
		[]logic.Sentence{logic.NewSentence(logic.Iff, logic.R, logic.Implies, logic.P, logic.Q)},
		agenda.DefaultConfig(),
	)
	require.NoError(t, err)
	return newGraph(t, cm.Models(),
		[]belief.Connection{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 0, Target: 2}, {Source: 1, Target: 1}, {Source: 1, Target: 0}, {Source: 2, Target: 2}},
		logic.Bits(1, 0, 0), logic.Bits(1, 1, 1), logic.Bits(0, 0, 1))
}

func TestDistances(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	b := mat.NewDense(2, 2, []float64{1, 0, 1, 1})

	d, err := Distances(a, b)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{1, 2, 1, 0}), d), "got %v", mat.Formatted(d))

	_, err = Distances(a, mat.NewDense(3, 1, nil))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDistances_EmptyOperand(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{1})
	tests := []struct {
		name string
		a, b mat.Matrix
	}{
		{"both empty", &mat.Dense{}, &mat.Dense{}},
		{"empty left", &mat.Dense{}, a},
		{"empty right", a, &mat.Dense{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Distances(tt.a, tt.b) })
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestNew_StateSpace(t *testing.T) {
	c := newChain(t, thesisGraph(t))
	assert.Equal(t, 64, c.NumStates())
	assert.Equal(t, State{2, 3, 0}, c.DefaultState())

	beliefs := make([]logic.Interpretation, 6)
	for i := range beliefs {
		beliefs[i] = logic.Bits(0, 0, 1)
	}
	cm, err := agenda.New([]logic.Proposition{logic.P, logic.Q, logic.R},
		[]logic.Sentence{logic.NewSentence(logic.Iff, logic.R, logic.Implies, logic.P, logic.Q)},
		agenda.DefaultConfig())
	require.NoError(t, err)
	_, err = New(newGraph(t, cm.Models(), nil, beliefs...), DefaultConfig())
	assert.ErrorIs(t, err, ErrStateSpaceTooLarge, "4^6 exceeds the default ceiling")

	many := make([]logic.Interpretation, 70)
	for i := range many {
		many[i] = logic.Bits(1)
	}
	_, err = New(newGraph(t, bit, nil, many...), Config{MaxStates: math.MaxInt})
	assert.ErrorIs(t, err, ErrStateSpaceTooLarge, "2^70 must not overflow")
}

func TestNew_SnapshotsGraph(t *testing.T) {
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 1}, {Source: 1, Target: 0}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	g.Update(nil)
	require.NoError(t, g.AddConnection(belief.Connection{Source: 0, Target: 0}))

	assert.Equal(t, State{0, 1}, c.DefaultState())
	sets, err := c.CandidateSets(State{0, 1})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {0}}, sets)
}

func TestStateIndexing(t *testing.T) {
	c := newChain(t, thesisGraph(t))
	states := c.States()
	require.Len(t, states, 64)
	assert.Equal(t, State{0, 0, 0}, states[0])
	assert.Equal(t, State{0, 0, 1}, states[1])
	assert.Equal(t, State{1, 0, 0}, states[16])

	for i, s := range states {
		idx, err := c.StateIndex(s)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	_, err := c.StateIndex(State{0, 0})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.StateIndex(State{0, 0, 4})
	assert.ErrorIs(t, err, ErrInvalidState)

	s, err := c.StateOf([]logic.Interpretation{logic.Bits(1, 0, 0), logic.Bits(1, 1, 1), logic.Bits(0, 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, State{2, 3, 0}, s)
	_, err = c.StateOf([]logic.Interpretation{logic.Bits(1, 1, 0), logic.Bits(1, 1, 1), logic.Bits(0, 0, 1)})
	assert.ErrorIs(t, err, ErrInvalidState)

	beliefs, err := c.Beliefs(State{2, 3, 0})
	require.NoError(t, err)
	assert.Equal(t, "100", beliefs[0].Key())
	assert.Equal(t, "111", beliefs[1].Key())
	assert.Equal(t, "001", beliefs[2].Key())
}

func TestCandidateSets_AgreeWithGraph(t *testing.T) {
	g := thesisGraph(t)
	c := newChain(t, g)
	models := g.Models()

	for _, s := range c.States() {
		sets, err := c.CandidateSets(s)
		require.NoError(t, err)

		beliefs, err := c.Beliefs(s)
		require.NoError(t, err)
		at := newGraph(t, models, g.Connections(), beliefs...)
		for a := range s {
			want, err := at.CandidateIndices(a)
			require.NoError(t, err)
			assert.Equal(t, want, sets[a], "state %v agent %d", s, a)
		}
	}
}

func TestCandidateSets_CompleteGraph(t *testing.T) {
	cm, err := agenda.New([]logic.Proposition{logic.P, logic.Q, logic.R},
		[]logic.Sentence{logic.NewSentence(logic.Iff, logic.R, logic.Implies, logic.P, logic.Q)},
		agenda.DefaultConfig())
	require.NoError(t, err)
	g := newGraph(t, cm.Models(), nil, logic.Bits(1, 0, 0), logic.Bits(0, 0, 1), logic.Bits(1, 1, 1))
	g.CompleteGraph()
	c := newChain(t, g)

	sets, err := c.CandidateSets(c.DefaultState())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, sets[0])
}

func TestSuccessorsAndProbability(t *testing.T) {
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 1, Target: 1}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	succ, err := c.Successors(State{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []State{{0, 1}, {1, 1}}, succ)

	p, err := c.Probability(State{0, 1}, State{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)

	p, err = c.Probability(State{0, 1}, State{1, 0})
	require.NoError(t, err)
	assert.Zero(t, p)

	_, err = c.Probability(State{0, 1}, State{2, 0})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransitionMatrix(t *testing.T) {
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 1, Target: 1}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	p, err := c.TransitionMatrix()
	require.NoError(t, err)
	want := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, .5, 0, .5,
		.5, 0, .5, 0,
		0, 0, 0, 1,
	})
	assert.True(t, mat.EqualApprox(want, p, 1e-12), "got\n%v", mat.Formatted(p))

	again, err := c.TransitionMatrix()
	require.NoError(t, err)
	assert.Same(t, p, again)
}

func TestTransitionMatrix_RowsSumToOne(t *testing.T) {
	g := thesisGraph(t)
	g.CompleteGraph()
	c := newChain(t, g)

	p, err := c.TransitionMatrix()
	require.NoError(t, err)
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		assert.InDelta(t, 1.0, mat.Sum(p.RowView(i)), 1e-9, "row %d", i)

		succ, err := c.Successors(c.States()[i])
		require.NoError(t, err)
		for _, s := range succ {
			j, _ := c.StateIndex(s)
			assert.InDelta(t, 1/float64(len(succ)), p.At(i, j), 1e-12)
		}
	}
}

func TestStationary(t *testing.T) {
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 1, Target: 1}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	st, err := c.Stationary(1000)
	require.NoError(t, err)
	want := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 0, 0, 1,
		1, 0, 0, 0,
		0, 0, 0, 1,
	})
	assert.True(t, mat.EqualApprox(want, st, 1e-12), "got\n%v", mat.Formatted(st))

	_, err = c.Stationary(0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	ok, err := c.Converged(1000, 1e-9)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResultForState(t *testing.T) {
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 1, Target: 1}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	out, err := c.ResultForState(c.DefaultState())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].Probability, 1e-9)
	assert.Equal(t, State{1, 1}, out[0].State)
	assert.Equal(t, "1", out[0].Beliefs[0].Key())

	_, err = c.ResultForState(State{0})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestResultForState_Thesis(t *testing.T) {
	c := newChain(t, thesisGraph(t))

	out, err := c.ResultForState(c.DefaultState())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	total := 0.0
	for i, o := range out {
		total += o.Probability
		assert.Positive(t, o.Probability)
		if i > 0 {
			assert.GreaterOrEqual(t, out[i-1].Probability, o.Probability, "sorted by probability")
		}
		// Agent 2 only listens to itself.
		assert.Equal(t, "001", o.Beliefs[2].Key())
	}
	assert.InDelta(t, 1.0, total, 1e-6)

	marg, err := c.Marginals(c.DefaultState())
	require.NoError(t, err)
	require.Len(t, marg, 3)
	for a, row := range marg {
		assert.InDelta(t, 1.0, floatsSum(row), 1e-6, "agent %d", a)
	}
	assert.InDelta(t, 1.0, marg[2][0], 1e-9)
}

func floatsSum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func TestDiagnose_Absorbing(t *testing.T) {
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 1, Target: 1}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	d, err := c.Diagnose()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, d.Absorbing)
	assert.Equal(t, []int{1, 2}, d.Transient)
	assert.Len(t, d.Recurrent(), 2)
	assert.False(t, d.Periodic())
	assert.False(t, d.Ergodic())
}

func TestDiagnose_Periodic(t *testing.T) {
	// Two agents copying each other swap forever.
	g := newGraph(t, bit, []belief.Connection{{Source: 0, Target: 1}, {Source: 1, Target: 0}}, logic.Bits(0), logic.Bits(1))
	c := newChain(t, g)

	var buf bytes.Buffer
	c.SetLogger(logging.NewLogger("info", &buf), nil)

	d, err := c.Diagnose()
	require.NoError(t, err)
	assert.True(t, d.Periodic())
	assert.Contains(t, d.Periods(), 2)
	assert.Equal(t, []int{0, 3}, d.Absorbing)
	assert.Empty(t, d.Transient)

	_, err = c.Stationary(1000)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "periodic"), "expected a warning, got %q", buf.String())

	ok, err := c.Converged(1000, 1e-9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiagnose_Ergodic(t *testing.T) {
	// A lone agent with no connections may adopt any model each step.
	g := newGraph(t, bit, nil, logic.Bits(0))
	c := newChain(t, g)

	d, err := c.Diagnose()
	require.NoError(t, err)
	assert.True(t, d.Ergodic())

	st, err := c.Stationary(50)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, st.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, st.At(1, 1), 1e-12)
}

func TestZeroAgents(t *testing.T) {
	c := newChain(t, newGraph(t, bit, nil))
	assert.Equal(t, 1, c.NumStates())
	assert.Equal(t, []State{{}}, c.States())

	sets, err := c.CandidateSets(State{})
	require.NoError(t, err)
	assert.Empty(t, sets)

	out, err := c.ResultForState(State{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].Probability, 1e-12)
	assert.Empty(t, out[0].State)
}

func TestZeroWidthModels(t *testing.T) {
	cm, err := agenda.New(nil, nil, agenda.DefaultConfig())
	require.NoError(t, err)
	empty := logic.Interpretation{}
	c := newChain(t, newGraph(t, cm.Models(), []belief.Connection{{Source: 0, Target: 1}}, empty, empty))

	assert.Equal(t, 1, c.NumStates())
	sets, err := c.CandidateSets(State{0, 0})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {0}}, sets)
}
