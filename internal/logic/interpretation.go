package logic

import (
	"fmt"
	"strings"
)

// Interpretation assigns a truth value to each proposition, in the declared
// proposition order.
type Interpretation []TruthValue

// Bits builds an interpretation from 0/1 integers. Any other value is reduced
// modulo 2.
func Bits(bits ...int) Interpretation {
	out := make(Interpretation, len(bits))
	for i, b := range bits {
		out[i] = FromInt(b)
	}
	return out
}

// Equal reports whether i and o are pointwise equal.
func (i Interpretation) Equal(o Interpretation) bool {
	if len(i) != len(o) {
		return false
	}
	for k := range i {
		if i[k] != o[k] {
			return false
		}
	}
	return true
}

// Clone returns a copy of i.
func (i Interpretation) Clone() Interpretation {
	out := make(Interpretation, len(i))
	copy(out, i)
	return out
}

// Key returns a compact form such as "101", suitable as a map key.
func (i Interpretation) Key() string {
	var b strings.Builder
	b.Grow(len(i))
	for _, v := range i {
		b.WriteString(v.String())
	}
	return b.String()
}

// String renders i as a tuple, e.g. "(1,0,1)".
func (i Interpretation) String() string {
	parts := make([]string, len(i))
	for k, v := range i {
		parts[k] = v.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Evaluate computes the truth value of sentence under interp, where interp[k]
// is the value of props[k].
//
// The sentence is scanned right to left with an explicit value stack. A
// proposition pushes its value. An operator pops its operands and pushes the
// result; for binary operators the value popped first is the left operand as
// written, so "implies p q" evaluates p -> q.
func Evaluate(props []Proposition, interp Interpretation, sentence Sentence) (TruthValue, error) {
	if len(props) != len(interp) {
		return False, fmt.Errorf("%d propositions, interpretation has %d values: %w",
			len(props), len(interp), ErrLengthMismatch)
	}
	values := make(map[Proposition]TruthValue, len(props))
	for k, p := range props {
		values[p] = interp[k]
	}

	stack := make([]TruthValue, 0, len(sentence))
	pop := func() (TruthValue, bool) {
		if len(stack) == 0 {
			return False, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for k := len(sentence) - 1; k >= 0; k-- {
		tok := sentence[k]
		if !tok.IsOperator() {
			v, ok := values[tok.Prop]
			if !ok {
				return False, fmt.Errorf("%q: %w", tok.Prop, ErrUnknownProposition)
			}
			stack = append(stack, v)
			continue
		}

		switch tok.Op.Arity() {
		case 1:
			p, ok := pop()
			if !ok {
				return False, fmt.Errorf("token %d: %s has no operand: %w", k, tok.Op, ErrMalformedSentence)
			}
			stack = append(stack, tok.Op.unary(p))
		case 2:
			second, ok1 := pop()
			first, ok2 := pop()
			if !ok1 || !ok2 {
				return False, fmt.Errorf("token %d: %s has too few operands: %w", k, tok.Op, ErrMalformedSentence)
			}
			stack = append(stack, tok.Op.binary(second, first))
		default:
			return False, fmt.Errorf("token %d: invalid operator: %w", k, ErrMalformedSentence)
		}
	}

	if len(stack) != 1 {
		return False, fmt.Errorf("%d values on stack after evaluation: %w", len(stack), ErrMalformedSentence)
	}
	return stack[0], nil
}
