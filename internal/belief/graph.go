// Package belief models a social network of agents that hold judgment sets
// and revise them by distance-based aggregation.
//
// Each agent holds one model of the agenda. A directed connection (i, j)
// means agent i listens to agent j. On every update an agent moves to a
// model that minimizes the summed Hamming distance to the beliefs of the
// agents it listens to, breaking ties with a caller-supplied random source.
package belief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nvandessel/jaggdy/internal/logging"
	"github.com/nvandessel/jaggdy/internal/logic"
)

var (
	// ErrInvalidAgentBelief is returned when an agent's belief is not a model.
	ErrInvalidAgentBelief = errors.New("agent belief is not a model")

	// ErrInvalidConnection is returned when a connection endpoint is not an agent.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrDuplicateConnection is returned when a connection is added twice.
	ErrDuplicateConnection = errors.New("duplicate connection")

	// ErrConnectionNotFound is returned when removing a connection that does not exist.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrAgentOutOfRange is returned for an agent index outside 0..n-1.
	ErrAgentOutOfRange = errors.New("agent out of range")
)

// Connection is a directed edge: Source is influenced by Target.
type Connection struct {
	Source int `json:"source" yaml:"source"`
	Target int `json:"target" yaml:"target"`
}

func (c Connection) String() string {
	return fmt.Sprintf("%d->%d", c.Source, c.Target)
}

// Source is the random source used to break ties. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Graph is a set of agents, their beliefs, and who listens to whom.
// Beliefs are stored as indices into the model list.
type Graph struct {
	models      []logic.Interpretation
	index       map[string]int
	width       int
	connections []Connection
	beliefs     []int

	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// New builds a graph. models, connections and beliefs are copied.
func New(models []logic.Interpretation, connections []Connection, beliefs []logic.Interpretation) (*Graph, error) {
	g := &Graph{
		models: make([]logic.Interpretation, len(models)),
		index:  make(map[string]int, len(models)),
		logger: logging.Discard(),
	}
	for i, m := range models {
		if i == 0 {
			g.width = len(m)
		} else if len(m) != g.width {
			return nil, fmt.Errorf("model %d has %d values, want %d: %w", i, len(m), g.width, logic.ErrLengthMismatch)
		}
		g.models[i] = m.Clone()
		if _, seen := g.index[m.Key()]; !seen {
			g.index[m.Key()] = i
		}
	}

	g.beliefs = make([]int, len(beliefs))
	for a, b := range beliefs {
		idx, ok := g.modelIndex(b)
		if !ok {
			return nil, fmt.Errorf("agent %d belief %s: %w", a, b, ErrInvalidAgentBelief)
		}
		g.beliefs[a] = idx
	}

	for _, c := range connections {
		if err := g.AddConnection(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// SetLogger sets the operational logger and the decision trace. Either may be nil.
func (g *Graph) SetLogger(logger *slog.Logger, decisions *logging.DecisionLogger) {
	g.logger = logging.OrDiscard(logger)
	g.decisions = decisions
}

func (g *Graph) modelIndex(interp logic.Interpretation) (int, bool) {
	if len(interp) != g.width || len(g.models) == 0 {
		return 0, false
	}
	idx, ok := g.index[interp.Key()]
	return idx, ok
}

func (g *Graph) checkAgent(agent int) error {
	if agent < 0 || agent >= len(g.beliefs) {
		return fmt.Errorf("agent %d of %d: %w", agent, len(g.beliefs), ErrAgentOutOfRange)
	}
	return nil
}

func (g *Graph) checkConnection(c Connection) error {
	n := len(g.beliefs)
	if c.Source < 0 || c.Source >= n || c.Target < 0 || c.Target >= n {
		return fmt.Errorf("%s with %d agents: %w", c, n, ErrInvalidConnection)
	}
	return nil
}

func (g *Graph) findConnection(c Connection) int {
	for i, existing := range g.connections {
		if existing == c {
			return i
		}
	}
	return -1
}

// AddConnection adds c. Connections form a set.
func (g *Graph) AddConnection(c Connection) error {
	if err := g.checkConnection(c); err != nil {
		return err
	}
	if g.findConnection(c) >= 0 {
		return fmt.Errorf("%s: %w", c, ErrDuplicateConnection)
	}
	g.connections = append(g.connections, c)
	return nil
}

// RemoveConnection removes c.
func (g *Graph) RemoveConnection(c Connection) error {
	if err := g.checkConnection(c); err != nil {
		return err
	}
	i := g.findConnection(c)
	if i < 0 {
		return fmt.Errorf("%s: %w", c, ErrConnectionNotFound)
	}
	g.connections = append(g.connections[:i], g.connections[i+1:]...)
	return nil
}

// CompleteGraph replaces the connections with every ordered pair of agents,
// self-pairs included.
func (g *Graph) CompleteGraph() {
	n := len(g.beliefs)
	g.connections = make([]Connection, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.connections = append(g.connections, Connection{Source: i, Target: j})
		}
	}
}

// AddSelfLoops makes every agent listen to itself.
func (g *Graph) AddSelfLoops() {
	for i := range g.beliefs {
		c := Connection{Source: i, Target: i}
		if g.findConnection(c) < 0 {
			g.connections = append(g.connections, c)
		}
	}
}

// RemoveSelfLoops drops every connection from an agent to itself.
func (g *Graph) RemoveSelfLoops() {
	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.Source != c.Target {
			kept = append(kept, c)
		}
	}
	g.connections = kept
}

// HammingDistance counts the positions where a and b differ.
func HammingDistance(a, b logic.Interpretation) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("hamming distance of %d and %d values: %w", len(a), len(b), logic.ErrLengthMismatch)
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// distance is HammingDistance over model indices. All models share a width.
func (g *Graph) distance(i, j int) int {
	a, b := g.models[i], g.models[j]
	d := 0
	for k := range a {
		if a[k] != b[k] {
			d++
		}
	}
	return d
}

// CandidateIndices returns the indices of the models that minimize the summed
// distance to the beliefs agent listens to, in model order. An agent with no
// outgoing connections gets every model.
func (g *Graph) CandidateIndices(agent int) ([]int, error) {
	if err := g.checkAgent(agent); err != nil {
		return nil, err
	}
	return g.candidates(agent, g.beliefs), nil
}

func (g *Graph) candidates(agent int, beliefs []int) []int {
	var targets []int
	for _, c := range g.connections {
		if c.Source == agent {
			targets = append(targets, beliefs[c.Target])
		}
	}

	best := -1
	var out []int
	for m := range g.models {
		total := 0
		for _, t := range targets {
			total += g.distance(m, t)
		}
		switch {
		case best < 0 || total < best:
			best = total
			out = append(out[:0], m)
		case total == best:
			out = append(out, m)
		}
	}
	return out
}

// CandidateModels returns the models agent may move to on the next update.
func (g *Graph) CandidateModels(agent int) ([]logic.Interpretation, error) {
	idx, err := g.CandidateIndices(agent)
	if err != nil {
		return nil, err
	}
	out := make([]logic.Interpretation, len(idx))
	for i, m := range idx {
		out[i] = g.models[m].Clone()
	}
	return out, nil
}

// Update performs one synchronous step. Every agent's candidates are computed
// from the beliefs before the step, then all picks are applied at once.
func (g *Graph) Update(rng Source) {
	before := append([]int(nil), g.beliefs...)
	next := make([]int, len(before))

	for agent := range before {
		cand := g.candidates(agent, before)
		g.logger.Log(context.Background(), logging.LevelTrace, "candidate set",
			"agent", agent, "candidates", len(cand))

		pick := 0
		if len(cand) > 1 {
			pick = rng.IntN(len(cand))
			g.decisions.Log("tie_break", map[string]any{
				"agent":      agent,
				"from":       g.models[before[agent]].Key(),
				"candidates": g.keys(cand),
				"chosen":     g.models[cand[pick]].Key(),
			})
		}
		next[agent] = cand[pick]
	}

	g.beliefs = next
	g.logger.Debug("belief update applied", "agents", len(next), "beliefs", g.beliefKeys())
}

func (g *Graph) keys(indices []int) []string {
	out := make([]string, len(indices))
	for i, m := range indices {
		out[i] = g.models[m].Key()
	}
	return out
}

func (g *Graph) beliefKeys() []string { return g.keys(g.beliefs) }

// Models returns a copy of the model set.
func (g *Graph) Models() []logic.Interpretation {
	out := make([]logic.Interpretation, len(g.models))
	for i, m := range g.models {
		out[i] = m.Clone()
	}
	return out
}

// Connections returns a copy of the connections in insertion order.
func (g *Graph) Connections() []Connection {
	return append([]Connection(nil), g.connections...)
}

// Beliefs returns a copy of every agent's current belief.
func (g *Graph) Beliefs() []logic.Interpretation {
	out := make([]logic.Interpretation, len(g.beliefs))
	for a, m := range g.beliefs {
		out[a] = g.models[m].Clone()
	}
	return out
}

// BeliefIndices returns every agent's current belief as a model index.
func (g *Graph) BeliefIndices() []int {
	return append([]int(nil), g.beliefs...)
}

// Belief returns agent's current belief.
func (g *Graph) Belief(agent int) (logic.Interpretation, error) {
	if err := g.checkAgent(agent); err != nil {
		return nil, err
	}
	return g.models[g.beliefs[agent]].Clone(), nil
}

// NumAgents returns the number of agents.
func (g *Graph) NumAgents() int { return len(g.beliefs) }

// Stable reports whether every agent's only candidate is its current belief,
// so further updates change nothing.
func (g *Graph) Stable() bool {
	for agent, b := range g.beliefs {
		cand := g.candidates(agent, g.beliefs)
		if len(cand) != 1 || cand[0] != b {
			return false
		}
	}
	return true
}

// Consensus reports whether all agents hold the same belief.
func (g *Graph) Consensus() bool {
	for _, b := range g.beliefs {
		if b != g.beliefs[0] {
			return false
		}
	}
	return true
}

func (g *Graph) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d agents, %d models, %d connections\n", len(g.beliefs), len(g.models), len(g.connections))
	for a, m := range g.beliefs {
		fmt.Fprintf(&sb, "  agent %d: %s\n", a, g.models[m])
	}
	conns := make([]string, len(g.connections))
	for i, c := range g.connections {
		conns[i] = c.String()
	}
	fmt.Fprintf(&sb, "  connections: %s", strings.Join(conns, " "))
	return sb.String()
}
