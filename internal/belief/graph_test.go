package belief

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/jaggdy/internal/agenda"
	"github.com/nvandessel/jaggdy/internal/logging"
	"github.com/nvandessel/jaggdy/internal/logic"
)

// lastSource always picks the last candidate.
type lastSource struct{}

func (lastSource) IntN(n int) int { return n - 1 }

func iffImpliesModels(t *testing.T) []logic.Interpretation {
	t.Helper()
	cm, err := agenda.New(
		[]logic.Proposition{logic.P, logic.Q, logic.R},
		[]logic.Sentence{logic.NewSentence(logic.Iff, logic.R, logic.Implies, logic.P, logic.Q)},
		agenda.DefaultConfig(),
	)
	require.NoError(t, err)
	return cm.Models()
}

func keys(interps []logic.Interpretation) []string {
	out := make([]string, len(interps))
	for i, m := range interps {
		out[i] = m.Key()
	}
	return out
}

func TestCandidateModels_SingleProposition(t *testing.T) {
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	g, err := New(models,
		[]Connection{{0, 0}, {0, 1}, {1, 1}},
		[]logic.Interpretation{logic.Bits(0), logic.Bits(1)})
	require.NoError(t, err)

	c0, err := g.CandidateModels(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, keys(c0))

	c1, err := g.CandidateModels(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, keys(c1))
}

func TestCandidateModels_CompleteGraph(t *testing.T) {
	models := iffImpliesModels(t)
	g, err := New(models, nil, []logic.Interpretation{
		logic.Bits(1, 0, 0), logic.Bits(0, 0, 1), logic.Bits(1, 1, 1),
	})
	require.NoError(t, err)
	g.CompleteGraph()
	assert.Len(t, g.Connections(), 9)

	c0, err := g.CandidateModels(0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"001", "100", "111"}, keys(c0))

	idx, err := g.CandidateIndices(0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, idx, "candidates come back in model order")
}

func TestCandidateModels_NoOutgoingConnections(t *testing.T) {
	models := iffImpliesModels(t)
	g, err := New(models, []Connection{{1, 0}}, []logic.Interpretation{
		logic.Bits(1, 0, 0), logic.Bits(0, 0, 1),
	})
	require.NoError(t, err)

	c0, err := g.CandidateModels(0)
	require.NoError(t, err)
	assert.Equal(t, keys(models), keys(c0))

	c1, err := g.CandidateModels(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, keys(c1))

	_, err = g.CandidateModels(2)
	assert.ErrorIs(t, err, ErrAgentOutOfRange)
	_, err = g.CandidateIndices(-1)
	assert.ErrorIs(t, err, ErrAgentOutOfRange)
}

func TestHammingDistance(t *testing.T) {
	all := []logic.Interpretation{}
	for k := 0; k < 8; k++ {
		all = append(all, logic.Bits(k>>2&1, k>>1&1, k&1))
	}
	for _, a := range all {
		d, err := HammingDistance(a, a)
		require.NoError(t, err)
		assert.Zero(t, d)
		for _, b := range all {
			ab, _ := HammingDistance(a, b)
			ba, _ := HammingDistance(b, a)
			assert.Equal(t, ab, ba, "symmetry %s %s", a, b)
			if !a.Equal(b) {
				assert.Positive(t, ab)
			}
			for _, c := range all {
				bc, _ := HammingDistance(b, c)
				ac, _ := HammingDistance(a, c)
				assert.LessOrEqual(t, ac, ab+bc, "triangle %s %s %s", a, b, c)
			}
		}
	}

	d, err := HammingDistance(logic.Bits(1, 0, 1), logic.Bits(0, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, d)

	_, err = HammingDistance(logic.Bits(1, 0), logic.Bits(1))
	assert.ErrorIs(t, err, logic.ErrLengthMismatch)
}

func TestNew_Errors(t *testing.T) {
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	one := []logic.Interpretation{logic.Bits(0)}

	_, err := New([]logic.Interpretation{logic.Bits(0)}, nil, []logic.Interpretation{logic.Bits(1)})
	assert.ErrorIs(t, err, ErrInvalidAgentBelief)

	_, err = New(models, nil, []logic.Interpretation{logic.Bits(0, 0)})
	assert.ErrorIs(t, err, ErrInvalidAgentBelief)

	_, err = New(nil, nil, one)
	assert.ErrorIs(t, err, ErrInvalidAgentBelief)

	_, err = New([]logic.Interpretation{logic.Bits(0), logic.Bits(0, 1)}, nil, nil)
	assert.ErrorIs(t, err, logic.ErrLengthMismatch)

	_, err = New(models, []Connection{{0, 1}}, one)
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = New(models, []Connection{{-1, 0}}, one)
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = New(models, []Connection{{0, 0}, {0, 0}}, one)
	assert.ErrorIs(t, err, ErrDuplicateConnection)
}

func TestNew_CopiesInputs(t *testing.T) {
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	beliefs := []logic.Interpretation{logic.Bits(1)}
	g, err := New(models, nil, beliefs)
	require.NoError(t, err)

	models[0][0] = logic.True
	beliefs[0][0] = logic.False
	assert.Equal(t, []string{"0", "1"}, keys(g.Models()))
	b, err := g.Belief(0)
	require.NoError(t, err)
	assert.Equal(t, "1", b.Key())

	out := g.Beliefs()
	out[0][0] = logic.False
	b, _ = g.Belief(0)
	assert.Equal(t, "1", b.Key())
}

func TestConnections(t *testing.T) {
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	g, err := New(models, nil, []logic.Interpretation{logic.Bits(0), logic.Bits(1), logic.Bits(1)})
	require.NoError(t, err)

	require.NoError(t, g.AddConnection(Connection{0, 1}))
	require.NoError(t, g.AddConnection(Connection{1, 1}))
	assert.ErrorIs(t, g.AddConnection(Connection{0, 1}), ErrDuplicateConnection)
	assert.ErrorIs(t, g.AddConnection(Connection{0, 3}), ErrInvalidConnection)

	require.NoError(t, g.RemoveConnection(Connection{0, 1}))
	assert.ErrorIs(t, g.RemoveConnection(Connection{0, 1}), ErrConnectionNotFound)
	assert.ErrorIs(t, g.RemoveConnection(Connection{5, 1}), ErrInvalidConnection)
	assert.Equal(t, []Connection{{1, 1}}, g.Connections())

	g.AddSelfLoops()
	assert.ElementsMatch(t, []Connection{{1, 1}, {0, 0}, {2, 2}}, g.Connections())

	g.CompleteGraph()
	g.RemoveSelfLoops()
	assert.Len(t, g.Connections(), 6)
	for _, c := range g.Connections() {
		assert.NotEqual(t, c.Source, c.Target)
	}
}

func TestUpdate_Synchronous(t *testing.T) {
	// Two agents that copy each other swap beliefs in one step.
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	g, err := New(models, []Connection{{0, 1}, {1, 0}},
		[]logic.Interpretation{logic.Bits(0), logic.Bits(1)})
	require.NoError(t, err)

	g.Update(lastSource{})
	assert.Equal(t, []int{1, 0}, g.BeliefIndices())
	assert.False(t, g.Stable())
	assert.False(t, g.Consensus())
}

func TestUpdate_TieBreakUsesSource(t *testing.T) {
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	g, err := New(models, []Connection{{0, 0}, {0, 1}, {1, 1}},
		[]logic.Interpretation{logic.Bits(0), logic.Bits(1)})
	require.NoError(t, err)

	var buf bytes.Buffer
	g.SetLogger(nil, logging.NewDecisionWriter(&buf))
	g.Update(lastSource{})

	assert.Equal(t, []int{1, 1}, g.BeliefIndices())
	assert.True(t, g.Consensus())
	assert.True(t, g.Stable())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "only agent 0 had a tie")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "tie_break", entry["event"])
	assert.Equal(t, float64(0), entry["agent"])
	assert.Equal(t, "1", entry["chosen"])
}

func TestUpdate_SeededIsReproducible(t *testing.T) {
	models := iffImpliesModels(t)
	start := []logic.Interpretation{logic.Bits(1, 0, 0), logic.Bits(0, 0, 1), logic.Bits(1, 1, 1), logic.Bits(0, 1, 1)}

	run := func() [][]int {
		g, err := New(models, nil, start)
		require.NoError(t, err)
		g.CompleteGraph()
		g.RemoveSelfLoops()
		rng := rand.New(rand.NewPCG(7, 11))
		var traj [][]int
		for i := 0; i < 20; i++ {
			g.Update(rng)
			traj = append(traj, g.BeliefIndices())
		}
		return traj
	}
	assert.Equal(t, run(), run())
}

func TestUpdate_BeliefsStayModels(t *testing.T) {
	models := iffImpliesModels(t)
	g, err := New(models, nil, []logic.Interpretation{logic.Bits(1, 0, 0), logic.Bits(0, 0, 1), logic.Bits(1, 1, 1)})
	require.NoError(t, err)
	g.CompleteGraph()

	rng := rand.New(rand.NewPCG(1, 1))
	member := map[string]bool{}
	for _, m := range models {
		member[m.Key()] = true
	}
	for i := 0; i < 50; i++ {
		g.Update(rng)
		for _, b := range g.Beliefs() {
			assert.True(t, member[b.Key()], "belief %s is not a model", b)
		}
	}
}

func TestZeroAgents(t *testing.T) {
	g, err := New([]logic.Interpretation{logic.Bits(1)}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, g.NumAgents())
	assert.True(t, g.Stable())
	assert.True(t, g.Consensus())
	g.Update(lastSource{})
	g.CompleteGraph()
	assert.Empty(t, g.Connections())
}

func TestString(t *testing.T) {
	models := []logic.Interpretation{logic.Bits(0), logic.Bits(1)}
	g, err := New(models, []Connection{{0, 1}}, []logic.Interpretation{logic.Bits(0), logic.Bits(1)})
	require.NoError(t, err)
	s := g.String()
	assert.Contains(t, s, "2 agents, 2 models, 1 connections")
	assert.Contains(t, s, "agent 1: (1)")
	assert.Contains(t, s, "0->1")
}
