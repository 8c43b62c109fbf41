package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/markov"
	"github.com/nvandessel/jaggdy/internal/visualization"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <scenario>",
		Short: "Render the belief graph or its Markov chain",
		Long: `Render the scenario's agents and connections as Graphviz DOT or JSON.
With --chain, render the state diagram of the Markov chain instead:
absorbing profiles are double circles and transient profiles are dashed.

Examples:
  jaggdy graph thesis-example | dot -Tsvg > thesis.svg
  jaggdy graph symmetric-complete --chain --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			formatName, _ := cmd.Flags().GetString("format")
			if jsonFlag(cmd) {
				formatName = string(visualization.FormatJSON)
			}
			format, err := visualization.ParseFormat(formatName)
			if err != nil {
				return err
			}

			sc, err := a.loadScenario(args[0])
			if err != nil {
				return err
			}
			g, err := sc.Build(a.cfg.AgendaOptions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if chainFlag, _ := cmd.Flags().GetBool("chain"); chainFlag {
				chain, err := markov.New(g, a.cfg.ChainOptions())
				if err != nil {
					return err
				}
				chain.SetLogger(a.logger, a.decisions)
				if format == visualization.FormatJSON {
					result, err := visualization.RenderChainJSON(chain)
					if err != nil {
						return err
					}
					return writeJSON(out, result)
				}
				dot, err := visualization.RenderChainDOT(sc.Name, chain)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, dot)
				return err
			}

			if format == visualization.FormatJSON {
				return writeJSON(out, visualization.RenderJSON(g))
			}
			_, err = fmt.Fprint(out, visualization.RenderDOT(sc.Name, g))
			return err
		},
	}

	cmd.Flags().String("format", string(visualization.FormatDOT), "Output format: dot or json")
	cmd.Flags().Bool("chain", false, "Render the Markov chain over belief profiles")
	return cmd
}
