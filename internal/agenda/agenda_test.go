package agenda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/jaggdy/internal/logic"
)

// keys returns the compact keys of interps, for order-independent comparison.
func keys(interps []logic.Interpretation) []string {
	out := make([]string, len(interps))
	for i, m := range interps {
		out[i] = m.Key()
	}
	return out
}

func TestNew_NoConstraints(t *testing.T) {
	for n := 0; n <= 6; n++ {
		props := logic.Vocabulary()[:n]
		cm, err := New(props, nil, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, 1<<n, cm.Len(), "n=%d", n)
		assert.Empty(t, cm.Constraint())
	}
}

func TestNew_EnumerationOrder(t *testing.T) {
	cm, err := New([]logic.Proposition{logic.P, logic.Q}, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"00", "01", "10", "11"}, keys(cm.Models()))
}

func TestNew_IffImplies(t *testing.T) {
	props := []logic.Proposition{logic.P, logic.Q, logic.R}
	constraint := logic.NewSentence(logic.Iff, logic.R, logic.Implies, logic.P, logic.Q)

	cm, err := New(props, []logic.Sentence{constraint}, DefaultConfig())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"111", "001", "100", "011"}, keys(cm.Models()))
	// Enumeration order puts the first proposition most significant.
	assert.Equal(t, []string{"001", "011", "100", "111"}, keys(cm.Models()))
}

func TestNew_Conjunction(t *testing.T) {
	tests := []struct {
		name        string
		props       []logic.Proposition
		constraints []string
		want        []string
		constraint  string
	}{
		{
			name:        "contradiction",
			props:       []logic.Proposition{logic.P, logic.Q},
			constraints: []string{"and p not p"},
			want:        []string{},
			constraint:  "and p not p",
		},
		{
			name:        "and then not",
			props:       []logic.Proposition{logic.P, logic.Q},
			constraints: []string{"and p q", "not q"},
			want:        []string{},
			constraint:  "and and p q not q",
		},
		{
			name:        "three constraints",
			props:       []logic.Proposition{logic.P, logic.Q, logic.R},
			constraints: []string{"not p", "or p r", "implies p q"},
			want:        []string{"001", "011"},
			constraint:  "and and not p or p r implies p q",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentences := make([]logic.Sentence, len(tt.constraints))
			for i, c := range tt.constraints {
				s, err := logic.ParseSentence(c)
				require.NoError(t, err)
				sentences[i] = s
			}
			cm, err := New(tt.props, sentences, DefaultConfig())
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, keys(cm.Models()))
			assert.Equal(t, tt.constraint, cm.Constraint().String())
		})
	}
}

func TestModels_Partition(t *testing.T) {
	props := []logic.Proposition{logic.P, logic.Q, logic.R, logic.S}
	constraints := []logic.Sentence{
		logic.NewSentence(logic.Iff, logic.R, logic.Implies, logic.P, logic.Q),
		logic.NewSentence(logic.Iff, logic.S, logic.Or, logic.P, logic.Not, logic.Q),
	}
	cm, err := New(props, constraints, DefaultConfig())
	require.NoError(t, err)

	member := make(map[string]bool)
	for _, m := range cm.Models() {
		member[m.Key()] = true
		v, err := cm.Evaluate(m, cm.Constraint())
		require.NoError(t, err)
		assert.Equal(t, logic.True, v, "model %s must satisfy", m)
	}

	all, err := New(props, nil, DefaultConfig())
	require.NoError(t, err)
	for _, interp := range all.Models() {
		if member[interp.Key()] {
			continue
		}
		v, err := cm.Evaluate(interp, cm.Constraint())
		require.NoError(t, err)
		assert.Equal(t, logic.False, v, "non-model %s must fail", interp)
	}
}

func TestModels_Deterministic(t *testing.T) {
	props := []logic.Proposition{logic.P, logic.Q, logic.R}
	constraints := []logic.Sentence{logic.NewSentence(logic.Or, logic.P, logic.R)}

	a, err := New(props, constraints, DefaultConfig())
	require.NoError(t, err)
	b, err := New(props, constraints, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Models(), b.Models())
}

func TestModels_ReturnsCopy(t *testing.T) {
	cm, err := New([]logic.Proposition{logic.P}, nil, DefaultConfig())
	require.NoError(t, err)
	models := cm.Models()
	models[0][0] = logic.True
	assert.Equal(t, "0", cm.Models()[0].Key())
}

func TestNew_Errors(t *testing.T) {
	props := []logic.Proposition{logic.P, logic.Q}

	_, err := New(props, []logic.Sentence{logic.NewSentence(logic.And, logic.P)}, DefaultConfig())
	assert.ErrorIs(t, err, logic.ErrArity)

	_, err = New(props, []logic.Sentence{logic.NewSentence(logic.P, logic.Q)}, DefaultConfig())
	assert.ErrorIs(t, err, logic.ErrArity)

	_, err = New(props, []logic.Sentence{logic.NewSentence(logic.And, logic.P, logic.R)}, DefaultConfig())
	assert.ErrorIs(t, err, logic.ErrUnknownProposition)

	_, err = New([]logic.Proposition{logic.P, logic.P}, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrDuplicateProposition)

	_, err = New(logic.Vocabulary(), nil, Config{MaxPropositions: 4})
	assert.ErrorIs(t, err, ErrModelSpaceTooLarge)

	_, err = New(props, []logic.Sentence{{}}, DefaultConfig())
	assert.ErrorIs(t, err, logic.ErrArity)
}

func TestSatisfiesAndIndexOf(t *testing.T) {
	props := []logic.Proposition{logic.P, logic.Q}
	cm, err := New(props, []logic.Sentence{logic.NewSentence(logic.Implies, logic.P, logic.Q)}, DefaultConfig())
	require.NoError(t, err)

	ok, err := cm.Satisfies(logic.Bits(1, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = cm.Satisfies(logic.Bits(1))
	assert.ErrorIs(t, err, logic.ErrLengthMismatch)

	assert.Equal(t, 0, cm.IndexOf(logic.Bits(0, 0)))
	assert.Equal(t, 2, cm.IndexOf(logic.Bits(1, 1)))
	assert.Equal(t, -1, cm.IndexOf(logic.Bits(1, 0)))
	assert.Equal(t, -1, cm.IndexOf(logic.Bits(1)))
}
