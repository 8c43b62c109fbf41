// Package markov turns a belief graph into a finite Markov chain.
//
// A global state assigns one model to every agent. From each state the
// distance-based update rule yields, per agent, a set of equally likely
// candidate models; every combination of candidates is a successor with
// probability 1/(product of the candidate set sizes). The transition matrix
// over all states is raised to a large power to approximate the long-run
// distribution from any starting state.
//
// The state space is |models|^|agents|, so the chain is only built when that
// count fits under Config.MaxStates.
package markov

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/constants"
	"github.com/nvandessel/jaggdy/internal/logging"
	"github.com/nvandessel/jaggdy/internal/logic"
)

var (
	// ErrDimensionMismatch is returned when matrix shapes are incompatible.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidState is returned for a state that is not a valid global state.
	ErrInvalidState = errors.New("invalid state")

	// ErrStateSpaceTooLarge is returned when |models|^|agents| exceeds MaxStates.
	ErrStateSpaceTooLarge = errors.New("state space too large")

	// ErrRowSum is returned when a transition row does not sum to 1.
	ErrRowSum = errors.New("transition row does not sum to 1")

	// ErrInvalidHorizon is returned for a matrix power below 1.
	ErrInvalidHorizon = errors.New("invalid horizon")
)

// Config bounds and tunes the chain.
type Config struct {
	// MaxStates is the largest state space that will be built. Default: 2048.
	MaxStates int

	// Horizon is the matrix power used for the long-run distribution. Default: 1000.
	Horizon int

	// ZeroTolerance clamps long-run probabilities below it to 0. Default: 1e-8.
	ZeroTolerance float64

	// RowSumTolerance is the allowed drift of a transition row sum from 1. Default: 1e-9.
	RowSumTolerance float64
}

// DefaultConfig returns the default chain configuration.
func DefaultConfig() Config {
	return Config{
		MaxStates:       constants.DefaultMaxStates,
		Horizon:         constants.DefaultHorizon,
		ZeroTolerance:   constants.DefaultZeroTolerance,
		RowSumTolerance: constants.DefaultRowSumTolerance,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxStates <= 0 {
		c.MaxStates = d.MaxStates
	}
	if c.Horizon <= 0 {
		c.Horizon = d.Horizon
	}
	if c.ZeroTolerance <= 0 {
		c.ZeroTolerance = d.ZeroTolerance
	}
	if c.RowSumTolerance <= 0 {
		c.RowSumTolerance = d.RowSumTolerance
	}
	return c
}

// State is a global state: the model index held by each agent.
type State []int

// Clone returns a copy of s.
func (s State) Clone() State { return append(State(nil), s...) }

// Chain is the Markov chain of a belief graph. It holds its own copy of the
// graph's models, connections and starting beliefs.
type Chain struct {
	cfg Config

	models      []logic.Interpretation
	connections []belief.Connection
	start       State

	numAgents int
	numModels int
	width     int
	numStates int

	// modelMatrix is width x numModels; column m is model m.
	modelMatrix *mat.Dense
	// adjacency is numAgents x numAgents; (i, j) is 1 iff i listens to j.
	adjacency *mat.Dense

	transition *mat.Dense
	stationary *mat.Dense

	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// New snapshots g and prepares the chain. The transition matrix is built on
// first use.
func New(g *belief.Graph, cfg Config) (*Chain, error) {
	cfg = cfg.withDefaults()

	c := &Chain{
		cfg:         cfg,
		models:      g.Models(),
		connections: g.Connections(),
		start:       State(g.BeliefIndices()),
		numAgents:   g.NumAgents(),
		logger:      logging.Discard(),
	}
	c.numModels = len(c.models)
	if c.numModels > 0 {
		c.width = len(c.models[0])
	}

	n, err := stateCount(c.numModels, c.numAgents, cfg.MaxStates)
	if err != nil {
		return nil, err
	}
	c.numStates = n

	if c.width > 0 && c.numModels > 0 {
		c.modelMatrix = mat.NewDense(c.width, c.numModels, nil)
		for m, model := range c.models {
			for p, v := range model {
				c.modelMatrix.Set(p, m, float64(v.Int()))
			}
		}
	}
	if c.numAgents > 0 {
		c.adjacency = mat.NewDense(c.numAgents, c.numAgents, nil)
		for _, conn := range c.connections {
			c.adjacency.Set(conn.Source, conn.Target, 1)
		}
	}
	return c, nil
}

// stateCount returns models^agents, or ErrStateSpaceTooLarge once it passes limit.
func stateCount(models, agents, limit int) (int, error) {
	count := 1
	for i := 0; i < agents; i++ {
		if models == 0 {
			return 0, nil
		}
		if count > limit/models {
			return 0, fmt.Errorf("%d models and %d agents exceed %d states: %w",
				models, agents, limit, ErrStateSpaceTooLarge)
		}
		count *= models
	}
	if count > limit {
		return 0, fmt.Errorf("%d states exceed %d: %w", count, limit, ErrStateSpaceTooLarge)
	}
	return count, nil
}

// SetLogger sets the operational logger and the decision trace. Either may be nil.
func (c *Chain) SetLogger(logger *slog.Logger, decisions *logging.DecisionLogger) {
	c.logger = logging.OrDiscard(logger)
	c.decisions = decisions
}

// NumStates returns the size of the state space.
func (c *Chain) NumStates() int { return c.numStates }

// NumAgents returns the number of agents.
func (c *Chain) NumAgents() int { return c.numAgents }

// Models returns a copy of the model set.
func (c *Chain) Models() []logic.Interpretation {
	out := make([]logic.Interpretation, len(c.models))
	for i, m := range c.models {
		out[i] = m.Clone()
	}
	return out
}

// DefaultState returns the graph's beliefs at the time the chain was built.
func (c *Chain) DefaultState() State { return c.start.Clone() }

func (c *Chain) validate(s State) error {
	if len(s) != c.numAgents {
		return fmt.Errorf("state has %d agents, want %d: %w", len(s), c.numAgents, ErrInvalidState)
	}
	for a, m := range s {
		if m < 0 || m >= c.numModels {
			return fmt.Errorf("agent %d holds model %d of %d: %w", a, m, c.numModels, ErrInvalidState)
		}
	}
	return nil
}

// StateIndex returns the position of s in States. Agent 0 is the most
// significant digit.
func (c *Chain) StateIndex(s State) (int, error) {
	if err := c.validate(s); err != nil {
		return 0, err
	}
	idx := 0
	for _, m := range s {
		idx = idx*c.numModels + m
	}
	return idx, nil
}

// stateAt is the inverse of StateIndex.
func (c *Chain) stateAt(idx int) State {
	s := make(State, c.numAgents)
	for a := c.numAgents - 1; a >= 0; a-- {
		s[a] = idx % c.numModels
		idx /= c.numModels
	}
	return s
}

// States enumerates every global state in index order.
func (c *Chain) States() []State {
	out := make([]State, c.numStates)
	for i := range out {
		out[i] = c.stateAt(i)
	}
	return out
}

// StateOf maps one belief per agent to a state.
func (c *Chain) StateOf(beliefs []logic.Interpretation) (State, error) {
	if len(beliefs) != c.numAgents {
		return nil, fmt.Errorf("%d beliefs for %d agents: %w", len(beliefs), c.numAgents, ErrInvalidState)
	}
	s := make(State, len(beliefs))
	for a, b := range beliefs {
		s[a] = -1
		for m, model := range c.models {
			if model.Equal(b) {
				s[a] = m
				break
			}
		}
		if s[a] < 0 {
			return nil, fmt.Errorf("agent %d belief %s is not a model: %w", a, b, ErrInvalidState)
		}
	}
	return s, nil
}

// Beliefs returns the model held by each agent in s.
func (c *Chain) Beliefs(s State) ([]logic.Interpretation, error) {
	if err := c.validate(s); err != nil {
		return nil, err
	}
	out := make([]logic.Interpretation, len(s))
	for a, m := range s {
		out[a] = c.models[m].Clone()
	}
	return out, nil
}
