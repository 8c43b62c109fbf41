// Package simulation drives belief graphs forward with a seeded random source.
//
// Run iterates the distance-based update rule on one graph until it reaches
// a fixed point or an iteration cap. EstimateOutcomes repeats that over many
// freshly built graphs and tallies the final states, giving a Monte Carlo
// estimate to set against the exact long-run distribution of the Markov
// chain.
//
// Usage:
//
//	func TestPairSplitsEvenly(t *testing.T) {
//	    r := simulation.NewRunner(simulation.Config{MaxIterations: 50, StopWhenStable: true, Seed: 3})
//	    freq, err := r.EstimateOutcomes(ctx, build, 1000)
//	    ...
//	    simulation.AssertMatchesChain(t, freq, outcomes, 0.05)
//	}
package simulation
