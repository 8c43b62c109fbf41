package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthValueField(t *testing.T) {
	values := []TruthValue{False, True}
	for _, a := range values {
		assert.Equal(t, False, a.Add(a), "addition is its own inverse")
		assert.Equal(t, a, a.Neg())
		for _, b := range values {
			assert.Contains(t, values, a.Add(b))
			assert.Contains(t, values, a.Mul(b))
			assert.Equal(t, a.Add(b), a.Sub(b))
		}
	}

	assert.Equal(t, True, True.Add(False))
	assert.Equal(t, False, True.Add(True))
	assert.Equal(t, False, True.Mul(False))
	assert.Equal(t, True, True.Mul(True))

	_, err := False.Inverse()
	assert.ErrorIs(t, err, ErrNoInverse)
	inv, err := True.Inverse()
	require.NoError(t, err)
	assert.Equal(t, True, inv)
}

func TestOperatorArity(t *testing.T) {
	tests := []struct {
		op    Operator
		arity int
	}{
		{Not, 1},
		{And, 2},
		{Or, 2},
		{Implies, 2},
		{Iff, 2},
		{Operator(0), 0},
		{Operator(42), 0},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.arity, tt.op.Arity())
		})
	}
}

func TestEvaluateTruthTables(t *testing.T) {
	props := []Proposition{P, Q}
	tests := []struct {
		name     string
		sentence Sentence
		want     [4]TruthValue // (p,q) = 00, 01, 10, 11
	}{
		{"not p", NewSentence(Not, P), [4]TruthValue{1, 1, 0, 0}},
		{"and", NewSentence(And, P, Q), [4]TruthValue{0, 0, 0, 1}},
		{"or", NewSentence(Or, P, Q), [4]TruthValue{0, 1, 1, 1}},
		{"implies", NewSentence(Implies, P, Q), [4]TruthValue{1, 1, 0, 1}},
		{"implies reversed", NewSentence(Implies, Q, P), [4]TruthValue{1, 0, 1, 1}},
		{"iff", NewSentence(Iff, P, Q), [4]TruthValue{1, 0, 0, 1}},
		{"nested", NewSentence(Or, Not, P, And, P, Q), [4]TruthValue{1, 1, 0, 1}},
	}
	inputs := []Interpretation{Bits(0, 0), Bits(0, 1), Bits(1, 0), Bits(1, 1)}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, in := range inputs {
				got, err := Evaluate(props, in, tt.sentence)
				require.NoError(t, err)
				assert.Equal(t, tt.want[k], got, "input %s", in)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	props := []Proposition{P, Q}

	_, err := Evaluate(props, Bits(1), NewSentence(P))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Evaluate(props, Bits(1, 0), NewSentence(And, P, R))
	assert.ErrorIs(t, err, ErrUnknownProposition)

	_, err = Evaluate(props, Bits(1, 0), NewSentence(And, P))
	assert.ErrorIs(t, err, ErrMalformedSentence)

	_, err = Evaluate(props, Bits(1, 0), NewSentence(P, Q))
	assert.ErrorIs(t, err, ErrMalformedSentence)

	_, err = Evaluate(props, Bits(1, 0), Sentence{})
	assert.ErrorIs(t, err, ErrMalformedSentence)
}

func TestSentenceValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Sentence
		wantErr bool
	}{
		{"empty", Sentence{}, false},
		{"atom", NewSentence(P), false},
		{"iff implies", NewSentence(Iff, R, Implies, P, Q), false},
		{"missing operand", NewSentence(Iff, R, Implies, P), true},
		{"extra operand", NewSentence(And, P, Q, R), true},
		{"dangling not", NewSentence(Not), true},
		{"invalid operator", Sentence{{Op: Operator(9)}, Atom(P)}, true},
		{"empty atom", Sentence{Atom("")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrArity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConjoin(t *testing.T) {
	assert.Empty(t, Conjoin())

	single := NewSentence(Not, P)
	got := Conjoin(single)
	assert.Equal(t, single, got)
	got[0] = Atom(Q)
	assert.Equal(t, Op(Not), single[0], "Conjoin must not alias its input")

	got = Conjoin(NewSentence(And, P, Q), NewSentence(Not, Q))
	assert.Equal(t, "and and p q not q", got.String())

	got = Conjoin(NewSentence(Not, P), NewSentence(Or, P, R), NewSentence(Implies, P, Q))
	assert.Equal(t, "and and not p or p r implies p q", got.String())
	assert.NoError(t, got.Validate())
}

func TestInterpretation(t *testing.T) {
	a := Bits(1, 0, 1)
	assert.Equal(t, "(1,0,1)", a.String())
	assert.Equal(t, "101", a.Key())
	assert.True(t, a.Equal(Bits(1, 0, 1)))
	assert.False(t, a.Equal(Bits(1, 0)))
	assert.False(t, a.Equal(Bits(1, 1, 1)))

	c := a.Clone()
	c[0] = False
	assert.Equal(t, True, a[0])
}

func TestParseSentence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"iff r implies p q", "iff r implies p q"},
		{"⇔ r ⇒ p q", "iff r implies p q"},
		{"<-> r -> p q", "iff r implies p q"},
		{"AND p ~ q", "and p not q"},
		{"or alpha beta_2", "or alpha beta_2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseSentence(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.String())
		})
	}

	_, err := ParseSentence("and p")
	assert.ErrorIs(t, err, ErrArity)

	_, err = ParseSentence("and p 3q")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestParseInterpretation(t *testing.T) {
	for _, in := range []string{"101", "1,0,1", "1 0 1", "(1, 0, 1)", "[1,0,1]"} {
		got, err := ParseInterpretation(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(Bits(1, 0, 1)), in)
	}

	empty, err := ParseInterpretation("()")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseInterpretation("10x")
	assert.ErrorIs(t, err, ErrUnknownToken)
}
