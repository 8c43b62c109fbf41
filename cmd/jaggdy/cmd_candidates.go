package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCandidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates <scenario>",
		Short: "Show the models each agent may adopt next",
		Long: `For each agent, list the models at minimum total Hamming distance from
the beliefs of the agents it listens to. An agent with no outgoing
connections may adopt any model.

Examples:
  jaggdy candidates thesis-example
  jaggdy candidates ./my-scenario.yaml --agent 0`,
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
			g.SetLogger(a.logger, a.decisions)

			agents := make([]int, 0, g.NumAgents())
			if cmd.Flags().Changed("agent") {
				agent, _ := cmd.Flags().GetInt("agent")
				agents = append(agents, agent)
			} else {
				for i := 0; i < g.NumAgents(); i++ {
					agents = append(agents, i)
				}
			}

			type row struct {
				Agent      int      `json:"agent"`
				Belief     string   `json:"belief"`
				Candidates []string `json:"candidates"`
			}
			rows := make([]row, 0, len(agents))
			models := g.Models()
			for _, agent := range agents {
				idx, err := g.CandidateIndices(agent)
				if err != nil {
					return err
				}
				b, err := g.Belief(agent)
				if err != nil {
					return err
				}
				rows = append(rows, row{Agent: agent, Belief: b.Key(), Candidates: keysOf(models, idx)})
			}

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				return writeJSON(out, map[string]any{"scenario": sc.Name, "agents": rows})
			}

			fmt.Fprintln(out, box(sc.Name, strings.Split(g.String(), "\n")))
			fmt.Fprintln(out, header("Candidates:"))
			for _, r := range rows {
				fmt.Fprintf(out, "  agent %d %s %s -> %s\n", r.Agent, label("holds"), r.Belief, strings.Join(r.Candidates, " "))
			}
			return nil
		},
	}

	cmd.Flags().Int("agent", 0, "Only show this agent")
	return cmd
}
