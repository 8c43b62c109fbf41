package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/constants"
	"github.com/nvandessel/jaggdy/internal/logging"
)

// seedStream is the second PCG word; Config.Seed picks the first.
const seedStream = 0x9e3779b97f4a7c15

// Config controls a simulation run.
type Config struct {
	// MaxIterations caps the number of updates per run. Default: 100.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// StopWhenStable ends a run early once no agent can change its belief.
	StopWhenStable bool `json:"stop_when_stable" yaml:"stop_when_stable"`

	// Seed seeds the tie-breaking random source.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Workers bounds concurrent runs in EstimateOutcomes. 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  constants.DefaultMaxIterations,
		StopWhenStable: true,
		Seed:           constants.DefaultSeed,
	}
}

// Result captures one run.
type Result struct {
	RunID      string `json:"run_id"`
	Iterations int    `json:"iterations"`
	Stable     bool   `json:"stable"`
	Consensus  bool   `json:"consensus"`
	// Final is the model index held by each agent at the end.
	Final []int `json:"final"`
	// Trajectory holds the belief indices before the first update and after
	// every update.
	Trajectory [][]int `json:"trajectory"`
}

// Runner runs simulations from one seeded random source. Runs are
// reproducible for a given seed and call sequence. Run is not safe for
// concurrent use; EstimateOutcomes manages its own concurrency.
type Runner struct {
	cfg Config
	rng *rand.Rand

	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// NewRunner creates a runner seeded from cfg.Seed.
func NewRunner(cfg Config) *Runner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = constants.DefaultMaxIterations
	}
	return &Runner{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, seedStream)),
		logger: logging.Discard(),
	}
}

// SetLogger sets the operational logger and the decision trace. Either may be nil.
func (r *Runner) SetLogger(logger *slog.Logger, decisions *logging.DecisionLogger) {
	r.logger = logging.OrDiscard(logger)
	r.decisions = decisions
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config { return r.cfg }

// Run updates g in place until it is stable (when enabled) or MaxIterations
// updates have been applied. ctx is checked between updates.
func (r *Runner) Run(ctx context.Context, g *belief.Graph) (Result, error) {
	return r.run(ctx, g, r.rng, true)
}

// run performs one run. The trajectory is kept only when record is set.
func (r *Runner) run(ctx context.Context, g *belief.Graph, rng *rand.Rand, record bool) (Result, error) {
	res := Result{RunID: uuid.New().String()}
	decisions := r.decisions.With(map[string]any{"run_id": res.RunID})
	g.SetLogger(r.logger, decisions)

	if record {
		res.Trajectory = append(res.Trajectory, g.BeliefIndices())
	}
	for res.Iterations < r.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("run %s interrupted after %d iterations: %w", res.RunID, res.Iterations, err)
		}
		if r.cfg.StopWhenStable && g.Stable() {
			break
		}
		g.Update(rng)
		res.Iterations++
		if record {
			res.Trajectory = append(res.Trajectory, g.BeliefIndices())
		}
	}

	res.Final = g.BeliefIndices()
	res.Stable = g.Stable()
	res.Consensus = g.Consensus()

	decisions.Log("run_complete", map[string]any{
		"iterations": res.Iterations,
		"stable":     res.Stable,
		"consensus":  res.Consensus,
		"final":      res.Final,
	})
	r.logger.Debug("simulation run complete",
		"run_id", res.RunID, "iterations", res.Iterations, "stable", res.Stable)
	return res, nil
}

// Frequency is how often runs ended in one state.
type Frequency struct {
	State    []int   `json:"state"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

// Frequencies tallies the final states of repeated runs, most frequent first.
type Frequencies struct {
	Runs     int         `json:"runs"`
	Outcomes []Frequency `json:"outcomes"`
}

// Fraction returns the share of runs that ended in state.
func (f Frequencies) Fraction(state []int) float64 {
	key := stateKey(state)
	for _, o := range f.Outcomes {
		if stateKey(o.State) == key {
			return o.Fraction
		}
	}
	return 0
}

func stateKey(state []int) string {
	parts := make([]string, len(state))
	for i, m := range state {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

// EstimateOutcomes runs build's graph runs times and tallies the final
// states. Runs execute concurrently on up to Config.Workers goroutines; run i
// draws from its own source seeded by (Seed, i), so the tally does not
// depend on scheduling. Trajectories are not recorded. build must return a
// fresh graph on every call and be safe for concurrent use.
func (r *Runner) EstimateOutcomes(ctx context.Context, build func() (*belief.Graph, error), runs int) (Frequencies, error) {
	if runs <= 0 {
		return Frequencies{}, fmt.Errorf("runs must be positive, got %d", runs)
	}

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	finals := make([][]int, runs)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < runs; i++ {
		eg.Go(func() error {
			g, err := build()
			if err != nil {
				return fmt.Errorf("building graph for run %d: %w", i, err)
			}
			rng := rand.New(rand.NewPCG(r.cfg.Seed, seedStream+uint64(i)+1))
			res, err := r.run(egCtx, g, rng, false)
			if err != nil {
				return err
			}
			finals[i] = res.Final
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Frequencies{}, err
	}

	counts := make(map[string]*Frequency)
	for _, final := range finals {
		key := stateKey(final)
		if f, ok := counts[key]; ok {
			f.Count++
		} else {
			counts[key] = &Frequency{State: final, Count: 1}
		}
	}

	out := Frequencies{Runs: runs, Outcomes: make([]Frequency, 0, len(counts))}
	for _, f := range counts {
		f.Fraction = float64(f.Count) / float64(runs)
		out.Outcomes = append(out.Outcomes, *f)
	}
	sort.Slice(out.Outcomes, func(i, j int) bool {
		if out.Outcomes[i].Count != out.Outcomes[j].Count {
			return out.Outcomes[i].Count > out.Outcomes[j].Count
		}
		return stateKey(out.Outcomes[i].State) < stateKey(out.Outcomes[j].State)
	})

	r.logger.Info("monte carlo estimate complete",
		"runs", runs, "workers", workers, "distinct_outcomes", len(out.Outcomes))
	return out, nil
}
