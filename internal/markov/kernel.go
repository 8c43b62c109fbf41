package markov

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/jaggdy/internal/logging"
)

// Distances returns the matrix whose (i, j) entry is the Hamming distance
// between row i of a and column j of b. Entries of a and b must be 0 or 1.
// a must have as many columns as b has rows, and neither may be empty.
func Distances(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar*ac == 0 || br*bc == 0 {
		return nil, fmt.Errorf("distances of %dx%d and %dx%d: empty operand: %w", ar, ac, br, bc, ErrDimensionMismatch)
	}
	if ac != br {
		return nil, fmt.Errorf("distances of %dx%d and %dx%d: %w", ar, ac, br, bc, ErrDimensionMismatch)
	}

	// d(x, y) = x·(1-y) + (1-x)·y over 0/1 vectors.
	var notA, notB mat.Dense
	notA.Sub(ones(ar, ac), a)
	notB.Sub(ones(br, bc), b)

	var d, rest mat.Dense
	d.Mul(a, &notB)
	rest.Mul(&notA, b)
	d.Add(&d, &rest)
	return &d, nil
}

func ones(r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(r, c, data)
}

// selection returns the numModels x numAgents indicator with a 1 at
// (s[a], a) for every agent.
func (c *Chain) selection(s State) *mat.Dense {
	sel := mat.NewDense(c.numModels, c.numAgents, nil)
	for a, m := range s {
		sel.Set(m, a, 1)
	}
	return sel
}

// CandidateSets returns, per agent, the model indices the agent may adopt
// from state s, in model order.
func (c *Chain) CandidateSets(s State) ([][]int, error) {
	if err := c.validate(s); err != nil {
		return nil, err
	}
	if c.numAgents == 0 {
		return [][]int{}, nil
	}

	// Zero-width models are all at distance 0 from each other.
	if c.modelMatrix == nil {
		all := make([]int, c.numModels)
		for m := range all {
			all[m] = m
		}
		out := make([][]int, c.numAgents)
		for a := range out {
			out[a] = append([]int(nil), all...)
		}
		return out, nil
	}

	// beliefs is width x numAgents; column a is agent a's model.
	var beliefs mat.Dense
	beliefs.Mul(c.modelMatrix, c.selection(s))

	dist, err := Distances(c.modelMatrix.T(), &beliefs)
	if err != nil {
		return nil, err
	}

	// totals is numModels x numAgents; (m, i) sums the distance from model m
	// to every belief agent i listens to.
	var totals mat.Dense
	totals.Mul(dist, c.adjacency.T())

	out := make([][]int, c.numAgents)
	for a := 0; a < c.numAgents; a++ {
		best := math.Inf(1)
		for m := 0; m < c.numModels; m++ {
			best = math.Min(best, totals.At(m, a))
		}
		for m := 0; m < c.numModels; m++ {
			if totals.At(m, a) == best {
				out[a] = append(out[a], m)
			}
		}
	}

	if c.logger.Enabled(context.Background(), logging.LevelTrace) {
		c.logger.Log(context.Background(), logging.LevelTrace, "candidate sets",
			"state", []int(s), "candidates", out)
	}
	return out, nil
}

// Successors returns every state reachable from s in one update, in state
// index order. Each is reached with probability 1/len(successors).
func (c *Chain) Successors(s State) ([]State, error) {
	sets, err := c.CandidateSets(s)
	if err != nil {
		return nil, err
	}
	return product(sets), nil
}

// product is the Cartesian product of sets with the first set varying slowest.
func product(sets [][]int) []State {
	out := []State{{}}
	for _, set := range sets {
		next := make([]State, 0, len(out)*len(set))
		for _, prefix := range out {
			for _, m := range set {
				st := make(State, len(prefix), len(prefix)+1)
				copy(st, prefix)
				next = append(next, append(st, m))
			}
		}
		out = next
	}
	return out
}

// Probability returns the one-step probability of moving from one state to another.
func (c *Chain) Probability(from, to State) (float64, error) {
	if err := c.validate(to); err != nil {
		return 0, err
	}
	sets, err := c.CandidateSets(from)
	if err != nil {
		return 0, err
	}
	p := 1.0
	for a, set := range sets {
		found := false
		for _, m := range set {
			if m == to[a] {
				found = true
				break
			}
		}
		if !found {
			return 0, nil
		}
		p /= float64(len(set))
	}
	return p, nil
}
