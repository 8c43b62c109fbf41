// Package scenario loads belief-graph setups from YAML.
//
// A scenario either declares an agenda (propositions plus integrity
// constraints, whose models are enumerated) or lists the admissible models
// directly. It then gives one belief per agent and the connections between
// agents.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/jaggdy/internal/agenda"
	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/logic"
)

// ErrInvalidScenario is returned when a scenario document is malformed.
var ErrInvalidScenario = errors.New("invalid scenario")

// Self-loop handling applied after connections are set up.
const (
	SelfLoopsKeep   = "keep"
	SelfLoopsAdd    = "add"
	SelfLoopsRemove = "remove"
)

// Scenario is one belief-graph setup.
type Scenario struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Propositions is the agenda, in order.
	Propositions []string `json:"propositions,omitempty" yaml:"propositions,omitempty"`

	// Constraints are prefix sentences, e.g. "iff r implies p q".
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// Models lists admissible interpretations directly, e.g. "10101".
	// Mutually exclusive with Constraints.
	Models []string `json:"models,omitempty" yaml:"models,omitempty"`

	// Agents holds one initial belief per agent.
	Agents []string `json:"agents" yaml:"agents"`

	// Connections are [source, target] pairs: source listens to target.
	Connections [][]int `json:"connections,omitempty" yaml:"connections,omitempty"`

	// Complete replaces Connections with every ordered pair, self-pairs included.
	Complete bool `json:"complete,omitempty" yaml:"complete,omitempty"`

	// SelfLoops is "keep" (default), "add" or "remove".
	SelfLoops string `json:"self_loops,omitempty" yaml:"self_loops,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %v: %w", err, ErrInvalidScenario)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Marshal encodes s as YAML.
func (s *Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks the document shape. Logical errors in constraints and
// beliefs are reported by Build.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidScenario)
	}
	if len(s.Models) > 0 && len(s.Constraints) > 0 {
		return fmt.Errorf("scenario %q: models and constraints are mutually exclusive: %w", s.Name, ErrInvalidScenario)
	}
	if len(s.Models) == 0 && len(s.Propositions) == 0 && len(s.Agents) > 0 {
		return fmt.Errorf("scenario %q: propositions or models are required: %w", s.Name, ErrInvalidScenario)
	}
	for i, c := range s.Connections {
		if len(c) != 2 {
			return fmt.Errorf("scenario %q: connection %d has %d endpoints, want 2: %w", s.Name, i, len(c), ErrInvalidScenario)
		}
	}
	switch s.SelfLoops {
	case "", SelfLoopsKeep, SelfLoopsAdd, SelfLoopsRemove:
	default:
		return fmt.Errorf("scenario %q: self_loops %q (valid: keep, add, remove): %w", s.Name, s.SelfLoops, ErrInvalidScenario)
	}
	return nil
}

// Agenda builds the constraint model. It returns nil when the scenario lists
// models directly.
func (s *Scenario) Agenda(cfg agenda.Config) (*agenda.ConstraintModel, error) {
	if len(s.Models) > 0 {
		return nil, nil
	}
	props := make([]logic.Proposition, len(s.Propositions))
	for i, p := range s.Propositions {
		props[i] = logic.Proposition(p)
	}
	constraints := make([]logic.Sentence, len(s.Constraints))
	for i, text := range s.Constraints {
		sentence, err := logic.ParseSentence(text)
		if err != nil {
			return nil, fmt.Errorf("scenario %q constraint %d: %w", s.Name, i, err)
		}
		constraints[i] = sentence
	}
	cm, err := agenda.New(props, constraints, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return cm, nil
}

// ModelSet returns the admissible models: the listed ones, or those of the agenda.
func (s *Scenario) ModelSet(cfg agenda.Config) ([]logic.Interpretation, error) {
	if len(s.Models) == 0 {
		cm, err := s.Agenda(cfg)
		if err != nil {
			return nil, err
		}
		return cm.Models(), nil
	}

	models := make([]logic.Interpretation, len(s.Models))
	for i, text := range s.Models {
		m, err := logic.ParseInterpretation(text)
		if err != nil {
			return nil, fmt.Errorf("scenario %q model %d: %w", s.Name, i, err)
		}
		if len(s.Propositions) > 0 && len(m) != len(s.Propositions) {
			return nil, fmt.Errorf("scenario %q model %d has %d values for %d propositions: %w",
				s.Name, i, len(m), len(s.Propositions), logic.ErrLengthMismatch)
		}
		models[i] = m
	}
	return models, nil
}

// Build constructs the belief graph.
func (s *Scenario) Build(cfg agenda.Config) (*belief.Graph, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	models, err := s.ModelSet(cfg)
	if err != nil {
		return nil, err
	}

	beliefs := make([]logic.Interpretation, len(s.Agents))
	for i, text := range s.Agents {
		b, err := logic.ParseInterpretation(text)
		if err != nil {
			return nil, fmt.Errorf("scenario %q agent %d: %w", s.Name, i, err)
		}
		beliefs[i] = b
	}

	conns := make([]belief.Connection, len(s.Connections))
	for i, c := range s.Connections {
		conns[i] = belief.Connection{Source: c[0], Target: c[1]}
	}

	g, err := belief.New(models, conns, beliefs)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if s.Complete {
		g.CompleteGraph()
	}
	switch s.SelfLoops {
	case SelfLoopsAdd:
		g.AddSelfLoops()
	case SelfLoopsRemove:
		g.RemoveSelfLoops()
	}
	return g, nil
}
