package logic

import (
	"fmt"
	"strings"
)

// Token is a single symbol of a prefix sentence: either an operator or a
// proposition, never both.
type Token struct {
	Op   Operator
	Prop Proposition
}

// Op returns an operator token.
func Op(o Operator) Token { return Token{Op: o} }

// Atom returns a proposition token.
func Atom(p Proposition) Token { return Token{Prop: p} }

// IsOperator reports whether the token holds an operator.
func (t Token) IsOperator() bool { return t.Op != 0 }

func (t Token) String() string {
	if t.IsOperator() {
		return t.Op.String()
	}
	return string(t.Prop)
}

// Sentence is a propositional formula in prefix (Polish) notation.
// The empty sentence stands for "no constraint".
type Sentence []Token

// NewSentence builds a sentence from operators and propositions, e.g.
//
//	NewSentence(Iff, R, Implies, P, Q)
//
// It panics on any other argument type, so it is meant for literals in code
// and tests. Use ParseSentence for untrusted input.
func NewSentence(items ...any) Sentence {
	s := make(Sentence, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case Operator:
			s = append(s, Op(v))
		case Proposition:
			s = append(s, Atom(v))
		case Token:
			s = append(s, v)
		default:
			panic(fmt.Sprintf("logic: cannot use %T in a sentence", it))
		}
	}
	return s
}

// Validate checks that the sentence reduces to exactly one value.
// The empty sentence is valid.
func (s Sentence) Validate() error {
	if len(s) == 0 {
		return nil
	}
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		tok := s[i]
		if !tok.IsOperator() {
			if tok.Prop == "" {
				return fmt.Errorf("token %d: empty proposition: %w", i, ErrArity)
			}
			depth++
			continue
		}
		arity := tok.Op.Arity()
		if arity == 0 {
			return fmt.Errorf("token %d: invalid operator %d: %w", i, uint8(tok.Op), ErrArity)
		}
		if depth < arity {
			return fmt.Errorf("token %d: %s needs %d operands, has %d: %w", i, tok.Op, arity, depth, ErrArity)
		}
		depth = depth - arity + 1
	}
	if depth != 1 {
		return fmt.Errorf("%d values left after reduction: %w", depth, ErrArity)
	}
	return nil
}

// Propositions returns the distinct propositions referenced by s in order of
// first appearance.
func (s Sentence) Propositions() []Proposition {
	seen := make(map[Proposition]bool)
	var props []Proposition
	for _, tok := range s {
		if tok.IsOperator() || seen[tok.Prop] {
			continue
		}
		seen[tok.Prop] = true
		props = append(props, tok.Prop)
	}
	return props
}

// Clone returns a copy of s.
func (s Sentence) Clone() Sentence {
	if s == nil {
		return nil
	}
	out := make(Sentence, len(s))
	copy(out, s)
	return out
}

func (s Sentence) String() string {
	words := make([]string, len(s))
	for i, tok := range s {
		words[i] = tok.String()
	}
	return strings.Join(words, " ")
}

// Conjoin folds sentences into a single left-associated conjunction:
//
//	and (and (... and c1 c2 ...) ck-1) ck
//
// built by prefix concatenation [and] + left + right. No sentences yields the
// empty sentence and one sentence is returned as a copy.
func Conjoin(sentences ...Sentence) Sentence {
	if len(sentences) == 0 {
		return Sentence{}
	}
	out := sentences[0].Clone()
	for _, next := range sentences[1:] {
		folded := make(Sentence, 0, 1+len(out)+len(next))
		folded = append(folded, Op(And))
		folded = append(folded, out...)
		folded = append(folded, next...)
		out = folded
	}
	return out
}
