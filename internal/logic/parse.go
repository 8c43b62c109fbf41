package logic

import (
	"fmt"
	"strings"
	"unicode"
)

// operatorWords maps every accepted spelling to its operator.
var operatorWords = map[string]Operator{
	"not": Not, "~": Not, "¬": Not, "!": Not,
	"and": And, "&": And, "∧": And,
	"or": Or, "|": Or, "∨": Or,
	"implies": Implies, "->": Implies, "⇒": Implies, "→": Implies,
	"iff": Iff, "<->": Iff, "⇔": Iff, "↔": Iff,
}

// ParseSentence parses a whitespace-separated prefix sentence such as
// "iff r implies p q" or "⇔ r ⇒ p q". Operator words are case-insensitive.
// Any other word must be an identifier and is taken as a proposition.
// The result is validated for arity.
func ParseSentence(text string) (Sentence, error) {
	fields := strings.Fields(text)
	s := make(Sentence, 0, len(fields))
	for _, f := range fields {
		if op, ok := operatorWords[strings.ToLower(f)]; ok {
			s = append(s, Op(op))
			continue
		}
		if !isIdentifier(f) {
			return nil, fmt.Errorf("parsing %q: %q: %w", text, f, ErrUnknownToken)
		}
		s = append(s, Atom(Proposition(f)))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", text, err)
	}
	return s, nil
}

// ParseInterpretation accepts "101", "1,0,1", "1 0 1" or "(1, 0, 1)".
func ParseInterpretation(text string) (Interpretation, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")

	out := make(Interpretation, 0, len(trimmed))
	for _, r := range trimmed {
		switch {
		case r == '0':
			out = append(out, False)
		case r == '1':
			out = append(out, True)
		case r == ',' || unicode.IsSpace(r):
		default:
			return nil, fmt.Errorf("parsing interpretation %q: %q: %w", text, r, ErrUnknownToken)
		}
	}
	return out, nil
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}
