package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/jaggdy/internal/logic"
	"github.com/nvandessel/jaggdy/internal/markov"
)

// maxPrintedStates bounds --matrix output in text mode.
const maxPrintedStates = 64

func newChainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <scenario>",
		Short: "Analyse the Markov chain over belief profiles",
		Long: `Build every belief profile of the scenario's graph, the transition
matrix of the update rule, and the long-run distribution P^horizon.
Report the profiles reachable in the long run from a start profile with
their probabilities.

The chain's class structure is reported too. A periodic recurrent class
means P^horizon does not converge, so long-run probabilities depend on the
parity of the horizon.

Examples:
  jaggdy chain thesis-example
  jaggdy chain thesis-example --start 111,111,001
  jaggdy chain symmetric-complete --horizon 200 --matrix --marginals`,
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
			g, err := sc.Build(a.cfg.AgendaOptions())
			if err != nil {
				return err
			}

			opts := a.cfg.ChainOptions()
			if cmd.Flags().Changed("horizon") {
				opts.Horizon, _ = cmd.Flags().GetInt("horizon")
				if opts.Horizon < 1 {
					return fmt.Errorf("horizon %d: %w", opts.Horizon, markov.ErrInvalidHorizon)
				}
			}
			chain, err := markov.New(g, opts)
			if err != nil {
				return err
			}
			chain.SetLogger(a.logger, a.decisions)

			start := chain.DefaultState()
			if texts, _ := cmd.Flags().GetStringSlice("start"); len(texts) > 0 {
				beliefs := make([]logic.Interpretation, len(texts))
				for i, text := range texts {
					if beliefs[i], err = logic.ParseInterpretation(text); err != nil {
						return fmt.Errorf("start belief %d: %w", i, err)
					}
				}
				if start, err = chain.StateOf(beliefs); err != nil {
					return err
				}
			}
			startBeliefs, err := chain.Beliefs(start)
			if err != nil {
				return err
			}

			outcomes, err := chain.ResultForState(start)
			if err != nil {
				return err
			}
			diag, err := chain.Diagnose()
			if err != nil {
				return err
			}
			converged, err := chain.Converged(opts.Horizon, a.cfg.Chain.ZeroTolerance)
			if err != nil {
				return err
			}

			showMatrix, _ := cmd.Flags().GetBool("matrix")
			showMarginals, _ := cmd.Flags().GetBool("marginals")
			var marginals [][]float64
			if showMarginals {
				if marginals, err = chain.Marginals(start); err != nil {
					return err
				}
			}
			var transition *mat.Dense
			if showMatrix {
				if transition, err = chain.TransitionMatrix(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				type outcome struct {
					Probability float64  `json:"probability"`
					State       []int    `json:"state"`
					Beliefs     []string `json:"beliefs"`
				}
				rows := make([]outcome, 0, len(outcomes))
				for _, o := range outcomes {
					rows = append(rows, outcome{Probability: o.Probability, State: o.State, Beliefs: strings.Fields(profile(o.Beliefs))})
				}
				result := map[string]any{
					"scenario":    sc.Name,
					"states":      chain.NumStates(),
					"horizon":     opts.Horizon,
					"start":       strings.Fields(profile(startBeliefs)),
					"outcomes":    rows,
					"diagnostics": diag,
					"periodic":    diag.Periodic(),
					"converged":   converged,
				}
				if marginals != nil {
					result["marginals"] = marginals
				}
				if transition != nil {
					r, _ := transition.Dims()
					matrix := make([][]float64, r)
					for i := range matrix {
						matrix[i] = mat.Row(nil, i, transition)
					}
					result["transition"] = matrix
				}
				return writeJSON(out, result)
			}

			summary := []string{
				fmt.Sprintf("%s %d (%d models, %d agents)", label("states:   "), chain.NumStates(), len(chain.Models()), chain.NumAgents()),
				fmt.Sprintf("%s %d", label("horizon:  "), opts.Horizon),
				fmt.Sprintf("%s %d recurrent, %d transient states, %d absorbing",
					label("classes:  "), len(diag.Recurrent()), len(diag.Transient), len(diag.Absorbing)),
			}
			fmt.Fprintln(out, box(sc.Name, summary))
			if diag.Periodic() {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("periodic recurrent class (periods %v): P^h does not converge", diag.Periods())))
			} else if !converged {
				fmt.Fprintln(out, warnStyle.Render("P^h has not converged at this horizon; increase --horizon"))
			}

			fmt.Fprintf(out, "\n%s %s\n", header("Long-run outcomes from"), profile(startBeliefs))
			for _, o := range outcomes {
				fmt.Fprintln(out, probabilityRow(o.Probability, profile(o.Beliefs)))
			}

			if marginals != nil {
				models := chain.Models()
				fmt.Fprintln(out)
				fmt.Fprintln(out, header("Marginals:"))
				for agent, row := range marginals {
					var parts []string
					for m, p := range row {
						if p > 0 {
							parts = append(parts, fmt.Sprintf("%s %.4f", models[m].Key(), p))
						}
					}
					fmt.Fprintf(out, "  agent %d: %s\n", agent, strings.Join(parts, ", "))
				}
			}

			if transition != nil {
				fmt.Fprintln(out)
				fmt.Fprintln(out, header("Transition matrix:"))
				if chain.NumStates() > maxPrintedStates {
					fmt.Fprintf(out, "  %d states; use --json for the full matrix\n", chain.NumStates())
				} else {
					fmt.Fprintf(out, "%v\n", mat.Formatted(transition, mat.Prefix("  "), mat.Squeeze()))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("start", nil, "Start profile, one belief per agent (default: the scenario's beliefs)")
	cmd.Flags().Int("horizon", 0, "Matrix power for the long-run distribution (default from config)")
	cmd.Flags().Bool("matrix", false, "Print the transition matrix")
	cmd.Flags().Bool("marginals", false, "Print each agent's long-run belief distribution")
	return cmd
}
