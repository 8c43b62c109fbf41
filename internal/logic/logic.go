// Package logic provides the propositional primitives used throughout jaggdy:
// propositions, truth values over the two-element field Z2, the closed set of
// logical operators, prefix-notation sentences and interpretations.
//
// Sentences are written in Polish notation. The sentence
//
//	iff r implies p q
//
// reads "r if and only if (p implies q)".
package logic

import (
	"errors"
	"fmt"
)

var (
	// ErrArity is returned when a sentence cannot be fully reduced by the
	// stack evaluator: an operator is missing operands or operands are left over.
	ErrArity = errors.New("sentence has wrong operator arity")

	// ErrMalformedSentence is returned when evaluation does not finish with
	// exactly one value on the stack.
	ErrMalformedSentence = errors.New("malformed sentence")

	// ErrUnknownProposition is returned when a sentence references a
	// proposition that is not declared.
	ErrUnknownProposition = errors.New("unknown proposition")

	// ErrLengthMismatch is returned when two interpretations, or an
	// interpretation and a proposition list, differ in length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrUnknownToken is returned by the parsers for unrecognized input.
	ErrUnknownToken = errors.New("unknown token")

	// ErrNoInverse is returned when inverting zero in Z2.
	ErrNoInverse = errors.New("zero has no multiplicative inverse")
)

// Proposition is an atomic propositional symbol.
type Proposition string

// The default proposition vocabulary.
const (
	P Proposition = "p"
	Q Proposition = "q"
	R Proposition = "r"
	S Proposition = "s"
	T Proposition = "t"
	U Proposition = "u"
	V Proposition = "v"
	W Proposition = "w"
	X Proposition = "x"
	Y Proposition = "y"
	Z Proposition = "z"
)

// Vocabulary returns the default propositions p through z in order.
func Vocabulary() []Proposition {
	return []Proposition{P, Q, R, S, T, U, V, W, X, Y, Z}
}

// TruthValue is an element of Z2. Addition is XOR and multiplication is AND,
// so the same value serves as a logical constant and as an algebraic element.
type TruthValue uint8

const (
	False TruthValue = 0
	True  TruthValue = 1
)

// FromBool converts a Go bool.
func FromBool(b bool) TruthValue {
	if b {
		return True
	}
	return False
}

// FromInt reduces n modulo 2.
func FromInt(n int) TruthValue {
	if n%2 == 0 {
		return False
	}
	return True
}

// Add returns v + o in Z2.
func (v TruthValue) Add(o TruthValue) TruthValue { return (v ^ o) & 1 }

// Sub returns v - o in Z2, which equals v + o.
func (v TruthValue) Sub(o TruthValue) TruthValue { return v.Add(o) }

// Mul returns v * o in Z2.
func (v TruthValue) Mul(o TruthValue) TruthValue { return v & o & 1 }

// Neg returns the additive inverse, which is v itself.
func (v TruthValue) Neg() TruthValue { return v }

// Inverse returns the multiplicative inverse.
func (v TruthValue) Inverse() (TruthValue, error) {
	if v == False {
		return False, ErrNoInverse
	}
	return v, nil
}

// Bool reports whether v is True.
func (v TruthValue) Bool() bool { return v == True }

// Int returns 0 or 1.
func (v TruthValue) Int() int { return int(v & 1) }

func (v TruthValue) String() string {
	if v == True {
		return "1"
	}
	return "0"
}

// Operator is one of the five logical connectives.
// The zero value is not a valid operator.
type Operator uint8

const (
	Not Operator = iota + 1
	And
	Or
	Implies
	Iff
)

// Arity returns the number of operands the operator consumes, or 0 for an
// invalid operator.
func (o Operator) Arity() int {
	switch o {
	case Not:
		return 1
	case And, Or, Implies, Iff:
		return 2
	default:
		return 0
	}
}

// Valid reports whether o is one of the declared operators.
func (o Operator) Valid() bool { return o.Arity() > 0 }

func (o Operator) String() string {
	switch o {
	case Not:
		return "not"
	case And:
		return "and"
	case Or:
		return "or"
	case Implies:
		return "implies"
	case Iff:
		return "iff"
	default:
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
}

// unary applies a one-place operator.
func (o Operator) unary(p TruthValue) TruthValue {
	switch o {
	case Not:
		return FromBool(!p.Bool())
	default:
		panic(fmt.Sprintf("logic: %s is not unary", o))
	}
}

// binary applies a two-place operator to (left, right) as written in the
// sentence.
func (o Operator) binary(p, q TruthValue) TruthValue {
	switch o {
	case And:
		return FromBool(p.Bool() && q.Bool())
	case Or:
		return FromBool(p.Bool() || q.Bool())
	case Implies:
		return FromBool(!p.Bool() || q.Bool())
	case Iff:
		return FromBool(p == q)
	default:
		panic(fmt.Sprintf("logic: %s is not binary", o))
	}
}
