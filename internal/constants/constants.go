// Package constants provides named constants used throughout the jaggdy codebase.
// This centralizes resource ceilings and numeric tolerances.
package constants

// Enumeration ceilings. Model enumeration is 2^n in the number of
// propositions and chain construction is |models|^|agents|, so both are
// bounded before any allocation.
const (
	// DefaultMaxPropositions is the largest agenda enumerated by default.
	DefaultMaxPropositions = 20

	// DefaultMaxStates is the largest global state space a chain will build.
	// The transition matrix is dense, so memory grows with the square:
	// 2048 states is a 32 MiB matrix.
	DefaultMaxStates = 2048
)

// Stationary distribution constants
const (
	// DefaultHorizon is the matrix power used to approximate the long-run
	// distribution.
	DefaultHorizon = 1000

	// DefaultZeroTolerance clamps entries of the powered matrix to zero.
	// Matches the absolute tolerance of a standard isclose(x, 0) check.
	DefaultZeroTolerance = 1e-8

	// DefaultRowSumTolerance is the allowed deviation of a transition row sum from 1.
	DefaultRowSumTolerance = 1e-9
)

// Simulation constants
const (
	// DefaultMaxIterations caps a single simulation run.
	DefaultMaxIterations = 100

	// DefaultMonteCarloRuns is the number of runs used to estimate outcome frequencies.
	DefaultMonteCarloRuns = 1000

	// DefaultSeed seeds the tie-breaking source when none is configured.
	DefaultSeed uint64 = 1
)

// Limits that configuration cannot raise.
const (
	// MaxPropositionsCeiling bounds agenda.max_propositions.
	MaxPropositionsCeiling = 30
)

// MCP server constants
const (
	// DefaultMCPRatePerMinute is the sustained call rate allowed per tool.
	DefaultMCPRatePerMinute = 60.0

	// DefaultMCPBurst is the number of calls allowed in a burst per tool.
	DefaultMCPBurst = 10

	// DefaultMCPMaxRuns caps Monte Carlo runs requested over MCP.
	DefaultMCPMaxRuns = 10000

	// DefaultMCPMaxIterations caps the updates per run requested over MCP.
	// A single run returns its trajectory, so this also bounds the response.
	DefaultMCPMaxIterations = 10000
)
