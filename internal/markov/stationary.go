package markov

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/jaggdy/internal/logic"
)

// TransitionMatrix returns the one-step transition matrix over States. It is
// built on first call and cached; callers must not modify it.
func (c *Chain) TransitionMatrix() (*mat.Dense, error) {
	if c.transition != nil {
		return c.transition, nil
	}

	n := c.numStates
	p := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		succ, err := c.Successors(c.stateAt(i))
		if err != nil {
			return nil, fmt.Errorf("building transitions from state %d: %w", i, err)
		}
		w := 1 / float64(len(succ))
		for _, s := range succ {
			j, err := c.StateIndex(s)
			if err != nil {
				return nil, err
			}
			p.Set(i, j, p.At(i, j)+w)
		}
	}

	for i := 0; i < n; i++ {
		sum := mat.Sum(p.RowView(i))
		if math.Abs(sum-1) > c.cfg.RowSumTolerance {
			return nil, fmt.Errorf("row %d sums to %g: %w", i, sum, ErrRowSum)
		}
	}

	c.logger.Debug("transition matrix built", "states", n, "agents", c.numAgents, "models", c.numModels)
	c.transition = p
	return p, nil
}

// Stationary returns P^horizon with entries below the zero tolerance set to 0.
// It is a fixed-power approximation of the long-run distribution: for a
// periodic chain the power oscillates rather than converging, and for a chain
// with several closed classes each row depends on its start state. Both cases
// are reported by Diagnose and logged as warnings here.
func (c *Chain) Stationary(horizon int) (*mat.Dense, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	p, err := c.TransitionMatrix()
	if err != nil {
		return nil, err
	}

	var pow mat.Dense
	pow.Pow(p, horizon)
	tol := c.cfg.ZeroTolerance
	pow.Apply(func(_, _ int, v float64) float64 {
		if math.Abs(v) < tol {
			return 0
		}
		return v
	}, &pow)

	diag, err := c.Diagnose()
	if err != nil {
		return nil, err
	}
	if diag.Periodic() {
		c.logger.Warn("chain has a periodic recurrent class; fixed power does not converge",
			"horizon", horizon, "periods", diag.Periods())
	}
	c.decisions.Log("stationary", map[string]any{
		"horizon":          horizon,
		"states":           c.numStates,
		"recurrent_groups": len(diag.Recurrent()),
		"periodic":         diag.Periodic(),
	})
	return &pow, nil
}

// stationaryDefault caches Stationary at the configured horizon.
func (c *Chain) stationaryDefault() (*mat.Dense, error) {
	if c.stationary != nil {
		return c.stationary, nil
	}
	s, err := c.Stationary(c.cfg.Horizon)
	if err != nil {
		return nil, err
	}
	c.stationary = s
	return s, nil
}

// Converged reports whether P^horizon and P^(horizon+1) agree within tol.
func (c *Chain) Converged(horizon int, tol float64) (bool, error) {
	if horizon < 1 {
		return false, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	p, err := c.TransitionMatrix()
	if err != nil {
		return false, err
	}
	var a, b mat.Dense
	a.Pow(p, horizon)
	b.Mul(&a, p)
	return mat.EqualApprox(&a, &b, tol), nil
}

// Outcome is one long-run state reachable from a start state.
type Outcome struct {
	Probability float64                `json:"probability"`
	State       State                  `json:"state"`
	Beliefs     []logic.Interpretation `json:"beliefs"`
}

// ResultForState returns the long-run outcomes from start with nonzero
// probability, most likely first. Ties keep state index order.
func (c *Chain) ResultForState(start State) ([]Outcome, error) {
	row, err := c.longRunRow(start)
	if err != nil {
		return nil, err
	}

	var out []Outcome
	for j, prob := range row {
		if prob == 0 {
			continue
		}
		s := c.stateAt(j)
		beliefs, err := c.Beliefs(s)
		if err != nil {
			return nil, err
		}
		out = append(out, Outcome{Probability: prob, State: s, Beliefs: beliefs})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out, nil
}

func (c *Chain) longRunRow(start State) ([]float64, error) {
	i, err := c.StateIndex(start)
	if err != nil {
		return nil, err
	}
	st, err := c.stationaryDefault()
	if err != nil {
		return nil, err
	}
	return mat.Row(nil, i, st), nil
}

// Marginals returns, per agent, the long-run probability of holding each
// model when starting from start.
func (c *Chain) Marginals(start State) ([][]float64, error) {
	row, err := c.longRunRow(start)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, c.numAgents)
	for a := range out {
		out[a] = make([]float64, c.numModels)
	}
	for j, prob := range row {
		if prob == 0 {
			continue
		}
		for a, m := range c.stateAt(j) {
			out[a][m] += prob
		}
	}
	return out, nil
}
