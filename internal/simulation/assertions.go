package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/jaggdy/internal/markov"
)

// AssertStable asserts that a run ended at a fixed point.
func AssertStable(t *testing.T, result Result) {
	t.Helper()
	if !result.Stable {
		t.Errorf("AssertStable: run %s not stable after %d iterations (final %v)", result.RunID, result.Iterations, result.Final)
	}
}

// AssertConsensus asserts that every agent ended with the same belief.
func AssertConsensus(t *testing.T, result Result) {
	t.Helper()
	if !result.Consensus {
		t.Errorf("AssertConsensus: run %s ended without consensus: %v", result.RunID, result.Final)
	}
}

// AssertTrajectoryLength asserts that the trajectory records the start plus
// one entry per update.
func AssertTrajectoryLength(t *testing.T, result Result) {
	t.Helper()
	if got, want := len(result.Trajectory), result.Iterations+1; got != want {
		t.Errorf("AssertTrajectoryLength: %d trajectory entries for %d iterations (want %d)", got, result.Iterations, want)
	}
}

// AssertMatchesChain asserts that Monte Carlo frequencies agree with the
// chain's long-run outcomes within tol, in both directions.
func AssertMatchesChain(t *testing.T, freq Frequencies, outcomes []markov.Outcome, tol float64) {
	t.Helper()
	predicted := make(map[string]float64, len(outcomes))
	for _, o := range outcomes {
		predicted[stateKey(o.State)] = o.Probability
		if got := freq.Fraction(o.State); math.Abs(got-o.Probability) > tol {
			t.Errorf("AssertMatchesChain: state %v observed %.4f, predicted %.4f (tol %.4f)", o.State, got, o.Probability, tol)
		}
	}
	for _, f := range freq.Outcomes {
		if _, ok := predicted[stateKey(f.State)]; !ok && f.Fraction > tol {
			t.Errorf("AssertMatchesChain: state %v observed %.4f but has no long-run probability", f.State, f.Fraction)
		}
	}
}

// AssertNarrowed asserts that, for every agent, the number of models with
// long-run probability is at most the number it could adopt after one update
// from start.
func AssertNarrowed(t *testing.T, chain *markov.Chain, start markov.State) {
	t.Helper()
	sets, err := chain.CandidateSets(start)
	if err != nil {
		t.Fatalf("AssertNarrowed: CandidateSets: %v", err)
	}
	marginals, err := chain.Marginals(start)
	if err != nil {
		t.Fatalf("AssertNarrowed: Marginals: %v", err)
	}
	for a, row := range marginals {
		held := 0
		for _, p := range row {
			if p > 0 {
				held++
			}
		}
		if held > len(sets[a]) {
			t.Errorf("AssertNarrowed: agent %d holds %d models in the long run but had %d candidates after one step", a, held, len(sets[a]))
		}
	}
}
