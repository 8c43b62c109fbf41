package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/scenario"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List and show scenarios",
		Long: `List the built-in scenarios, or print one as YAML to use as a starting
point for your own.

Examples:
  jaggdy scenarios
  jaggdy scenarios show thesis-example > mine.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			type summary struct {
				Name        string `json:"name"`
				Description string `json:"description,omitempty"`
				Agents      int    `json:"agents"`
				Models      int    `json:"models"`
			}
			var rows []summary
			for _, name := range scenario.BuiltinNames() {
				sc, err := scenario.Builtin(name)
				if err != nil {
					return err
				}
				models, err := sc.ModelSet(a.cfg.AgendaOptions())
				if err != nil {
					return err
				}
				rows = append(rows, summary{Name: sc.Name, Description: sc.Description, Agents: len(sc.Agents), Models: len(models)})
			}

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				return writeJSON(out, map[string]any{"scenarios": rows, "count": len(rows)})
			}

			fmt.Fprintln(out, header("Built-in scenarios:"))
			for _, r := range rows {
				fmt.Fprintf(out, "  %-22s %s\n", r.Name, label(fmt.Sprintf("%d agents, %d models", r.Agents, r.Models)))
				if r.Description != "" {
					fmt.Fprintf(out, "  %-22s %s\n", "", r.Description)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(newScenariosShowCmd())
	return cmd
}

func newScenariosShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <scenario>",
		Short: "Print a scenario as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Resolve(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				return writeJSON(out, sc)
			}
			data, err := sc.Marshal()
			if err != nil {
				return fmt.Errorf("failed to marshal scenario: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}
