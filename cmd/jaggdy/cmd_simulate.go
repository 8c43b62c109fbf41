package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/belief"
	"github.com/nvandessel/jaggdy/internal/logic"
	"github.com/nvandessel/jaggdy/internal/markov"
	"github.com/nvandessel/jaggdy/internal/simulation"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Run the synchronous belief update",
		Long: `Run the update rule from the scenario's initial beliefs. Every agent
moves at once to a model at minimum total distance from the agents it
listens to; ties are broken uniformly at random from a seeded source.

A single run prints its trajectory. With --runs N (or --estimate, which
uses simulation.runs from config) the final profiles of N independent runs
are tallied, and --compare sets them against the chain's exact long-run
probabilities.

Examples:
  jaggdy simulate thesis-example
  jaggdy simulate symmetric-sparse --seed 7 --max-iterations 50
  jaggdy simulate thesis-example --runs 2000 --compare`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			sc, err := a.loadScenario(args[0])
			if err != nil {
				return err
			}
			agendaOpts := a.cfg.AgendaOptions()
			build := func() (*belief.Graph, error) { return sc.Build(agendaOpts) }
			g, err := build()
			if err != nil {
				return err
			}

			simCfg := a.cfg.SimulationOptions()
			if cmd.Flags().Changed("seed") {
				simCfg.Seed, _ = cmd.Flags().GetUint64("seed")
			}
			if cmd.Flags().Changed("max-iterations") {
				simCfg.MaxIterations, _ = cmd.Flags().GetInt("max-iterations")
			}
			if noStop, _ := cmd.Flags().GetBool("no-stop"); noStop {
				simCfg.StopWhenStable = false
			}
			runner := simulation.NewRunner(simCfg)
			runner.SetLogger(a.logger, a.decisions)

			runs, _ := cmd.Flags().GetInt("runs")
			if estimate, _ := cmd.Flags().GetBool("estimate"); estimate && !cmd.Flags().Changed("runs") {
				runs = a.cfg.Simulation.Runs
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be positive, got %d", runs)
			}

			out := cmd.OutOrStdout()
			models := g.Models()

			if runs == 1 {
				res, err := runner.Run(cmd.Context(), g)
				if err != nil {
					return err
				}
				if jsonFlag(cmd) {
					traj := make([][]string, len(res.Trajectory))
					for i, step := range res.Trajectory {
						traj[i] = keysOf(models, step)
					}
					return writeJSON(out, map[string]any{
						"scenario":   sc.Name,
						"run_id":     res.RunID,
						"seed":       simCfg.Seed,
						"iterations": res.Iterations,
						"stable":     res.Stable,
						"consensus":  res.Consensus,
						"final":      keysOf(models, res.Final),
						"trajectory": traj,
					})
				}

				fmt.Fprintln(out, header(fmt.Sprintf("%s (seed %d)", sc.Name, simCfg.Seed)))
				for i, step := range res.Trajectory {
					fmt.Fprintf(out, "  %s %s\n", label(fmt.Sprintf("step %3d:", i)), profileOf(models, step))
				}
				status := "stable"
				if !res.Stable {
					status = warnStyle.Render("not stable")
				}
				fmt.Fprintf(out, "\n%s after %d iterations, consensus: %v\n", status, res.Iterations, res.Consensus)
				return nil
			}

			freq, err := runner.EstimateOutcomes(cmd.Context(), build, runs)
			if err != nil {
				return err
			}

			var predicted map[string]float64
			if compare, _ := cmd.Flags().GetBool("compare"); compare {
				if predicted, err = chainPrediction(a, g); err != nil {
					return err
				}
			}

			if jsonFlag(cmd) {
				type outcome struct {
					Beliefs   []string `json:"beliefs"`
					Count     int      `json:"count"`
					Fraction  float64  `json:"fraction"`
					Predicted *float64 `json:"predicted,omitempty"`
				}
				rows := make([]outcome, 0, len(freq.Outcomes))
				for _, f := range freq.Outcomes {
					o := outcome{Beliefs: keysOf(models, f.State), Count: f.Count, Fraction: f.Fraction}
					if predicted != nil {
						p := predicted[profileOf(models, f.State)]
						o.Predicted = &p
					}
					rows = append(rows, o)
				}
				return writeJSON(out, map[string]any{
					"scenario": sc.Name,
					"seed":     simCfg.Seed,
					"runs":     freq.Runs,
					"outcomes": rows,
				})
			}

			fmt.Fprintln(out, header(fmt.Sprintf("%s: %d runs (seed %d)", sc.Name, freq.Runs, simCfg.Seed)))
			for _, f := range freq.Outcomes {
				line := probabilityRow(f.Fraction, profileOf(models, f.State))
				if predicted != nil {
					line += label(fmt.Sprintf("  (chain %.4f)", predicted[profileOf(models, f.State)]))
				}
				fmt.Fprintln(out, line)
			}
			if predicted != nil {
				var missing []string
				for p, prob := range predicted {
					if freq.Fraction(stateOfProfile(models, p)) == 0 && prob > 0 {
						missing = append(missing, fmt.Sprintf("%s (%.4f)", p, prob))
					}
				}
				if len(missing) > 0 {
					sort.Strings(missing)
					fmt.Fprintf(out, "%s %s\n", label("never observed:"), strings.Join(missing, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("runs", 1, "Number of independent runs")
	cmd.Flags().Bool("estimate", false, "Run simulation.runs independent runs")
	cmd.Flags().Bool("compare", false, "Compare run frequencies with the chain's long-run probabilities")
	cmd.Flags().Uint64("seed", 0, "Random seed (default from config)")
	cmd.Flags().Int("max-iterations", 0, "Update cap per run (default from config)")
	cmd.Flags().Bool("no-stop", false, "Keep updating after a fixed point is reached")
	return cmd
}

// chainPrediction returns the chain's long-run probability of each profile
// from the graph's current beliefs, keyed by the rendered profile.
func chainPrediction(a *app, g *belief.Graph) (map[string]float64, error) {
	chain, err := markov.New(g, a.cfg.ChainOptions())
	if err != nil {
		return nil, err
	}
	chain.SetLogger(a.logger, a.decisions)
	outcomes, err := chain.ResultForState(chain.DefaultState())
	if err != nil {
		return nil, err
	}
	predicted := make(map[string]float64, len(outcomes))
	for _, o := range outcomes {
		predicted[profile(o.Beliefs)] = o.Probability
	}
	return predicted, nil
}

// stateOfProfile maps a rendered profile back to model indices.
func stateOfProfile(models []logic.Interpretation, p string) []int {
	fields := strings.Fields(p)
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i] = -1
		for m, model := range models {
			if model.Key() == f {
				out[i] = m
				break
			}
		}
	}
	return out
}
