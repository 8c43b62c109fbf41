// Package agenda enumerates the rational judgment sets of an agenda: every
// truth assignment to a fixed list of propositions that satisfies the
// conjunction of the integrity constraints.
//
// Enumeration is brute force over all 2^n assignments, so it is only
// tractable for small agendas. Config.MaxPropositions bounds n before any
// work is done.
package agenda

import (
	"errors"
	"fmt"

	"github.com/nvandessel/jaggdy/internal/constants"
	"github.com/nvandessel/jaggdy/internal/logic"
)

var (
	// ErrDuplicateProposition is returned when a proposition is declared twice.
	ErrDuplicateProposition = errors.New("duplicate proposition")

	// ErrModelSpaceTooLarge is returned when 2^n exceeds the configured ceiling.
	ErrModelSpaceTooLarge = errors.New("model space too large")
)

// Config bounds model enumeration.
type Config struct {
	// MaxPropositions is the largest agenda that will be enumerated. Default: 20.
	MaxPropositions int
}

// DefaultConfig returns the default enumeration limits.
func DefaultConfig() Config {
	return Config{MaxPropositions: constants.DefaultMaxPropositions}
}

// ConstraintModel holds an agenda, its integrity constraints and the models
// of those constraints. It is immutable after construction.
type ConstraintModel struct {
	props      []logic.Proposition
	constraint logic.Sentence
	models     []logic.Interpretation
	index      map[string]int
}

// New validates the constraints, folds them into a single conjunction and
// enumerates the models.
func New(props []logic.Proposition, constraints []logic.Sentence, cfg Config) (*ConstraintModel, error) {
	if cfg.MaxPropositions <= 0 {
		cfg.MaxPropositions = constants.DefaultMaxPropositions
	}
	if len(props) > cfg.MaxPropositions {
		return nil, fmt.Errorf("%d propositions exceeds limit of %d: %w",
			len(props), cfg.MaxPropositions, ErrModelSpaceTooLarge)
	}

	declared := make(map[logic.Proposition]bool, len(props))
	for _, p := range props {
		if declared[p] {
			return nil, fmt.Errorf("%q: %w", p, ErrDuplicateProposition)
		}
		declared[p] = true
	}

	for i, c := range constraints {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("constraint %d (%s): %w", i, c, err)
		}
		if len(c) == 0 {
			return nil, fmt.Errorf("constraint %d is empty: %w", i, logic.ErrArity)
		}
		for _, p := range c.Propositions() {
			if !declared[p] {
				return nil, fmt.Errorf("constraint %d (%s): %q: %w", i, c, p, logic.ErrUnknownProposition)
			}
		}
	}

	cm := &ConstraintModel{
		props:      append([]logic.Proposition(nil), props...),
		constraint: logic.Conjoin(constraints...),
	}
	if err := cm.enumerate(); err != nil {
		return nil, err
	}
	return cm, nil
}

// enumerate walks every assignment with the first proposition most
// significant and values ascending, keeping those that satisfy the constraint.
func (cm *ConstraintModel) enumerate() error {
	n := len(cm.props)
	total := 1 << n
	cm.models = make([]logic.Interpretation, 0)
	cm.index = make(map[string]int)

	for k := 0; k < total; k++ {
		interp := make(logic.Interpretation, n)
		for j := 0; j < n; j++ {
			interp[j] = logic.FromInt(k >> (n - 1 - j))
		}
		ok, err := cm.Satisfies(interp)
		if err != nil {
			return fmt.Errorf("enumerating models: %w", err)
		}
		if ok {
			cm.index[interp.Key()] = len(cm.models)
			cm.models = append(cm.models, interp)
		}
	}
	return nil
}

// Propositions returns the agenda in declared order.
func (cm *ConstraintModel) Propositions() []logic.Proposition {
	return append([]logic.Proposition(nil), cm.props...)
}

// Constraint returns the folded conjunction of all constraints. It is empty
// when there are no constraints.
func (cm *ConstraintModel) Constraint() logic.Sentence {
	return cm.constraint.Clone()
}

// Models returns a copy of the model set in enumeration order.
func (cm *ConstraintModel) Models() []logic.Interpretation {
	out := make([]logic.Interpretation, len(cm.models))
	for i, m := range cm.models {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of models.
func (cm *ConstraintModel) Len() int { return len(cm.models) }

// Evaluate evaluates sentence under interp against this agenda's propositions.
func (cm *ConstraintModel) Evaluate(interp logic.Interpretation, sentence logic.Sentence) (logic.TruthValue, error) {
	return logic.Evaluate(cm.props, interp, sentence)
}

// Satisfies reports whether interp satisfies the integrity constraints.
// Every interpretation of the right length satisfies an empty constraint.
func (cm *ConstraintModel) Satisfies(interp logic.Interpretation) (bool, error) {
	if len(interp) != len(cm.props) {
		return false, fmt.Errorf("%d propositions, interpretation has %d values: %w",
			len(cm.props), len(interp), logic.ErrLengthMismatch)
	}
	if len(cm.constraint) == 0 {
		return true, nil
	}
	v, err := cm.Evaluate(interp, cm.constraint)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// IndexOf returns the position of interp in Models, or -1.
func (cm *ConstraintModel) IndexOf(interp logic.Interpretation) int {
	if len(interp) != len(cm.props) {
		return -1
	}
	if i, ok := cm.index[interp.Key()]; ok {
		return i
	}
	return -1
}
