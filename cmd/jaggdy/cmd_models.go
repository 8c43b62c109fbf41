package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/logic"
	"github.com/nvandessel/jaggdy/internal/scenario"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [scenario]",
		Short: "Enumerate the models of an agenda",
		Long: `List the interpretations of an agenda that satisfy its integrity
constraints, in enumeration order (first proposition most significant).

The agenda comes from a scenario (built-in name or YAML file) or from flags.

Examples:
  jaggdy models thesis-example
  jaggdy models --props p,q,r --constraint "iff r implies p q"
  jaggdy models --props p,q --constraint "or p q" --check 00`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			props, _ := cmd.Flags().GetStringSlice("props")
			constraints, _ := cmd.Flags().GetStringArray("constraint")
			check, _ := cmd.Flags().GetString("check")

			sc := &scenario.Scenario{Name: "cli", Propositions: props, Constraints: constraints}
			if len(args) == 1 {
				if sc, err = a.loadScenario(args[0]); err != nil {
					return err
				}
			}

			var (
				models     []logic.Interpretation
				constraint string
				satisfies  *bool
			)
			cm, err := sc.Agenda(a.cfg.AgendaOptions())
			if err != nil {
				return err
			}
			if cm != nil {
				models = cm.Models()
				constraint = cm.Constraint().String()
				if check != "" {
					interp, err := logic.ParseInterpretation(check)
					if err != nil {
						return err
					}
					ok, err := cm.Satisfies(interp)
					if err != nil {
						return err
					}
					satisfies = &ok
				}
			} else {
				if check != "" {
					return fmt.Errorf("--check needs an agenda with constraints; scenario %q lists models directly", sc.Name)
				}
				if models, err = sc.ModelSet(a.cfg.AgendaOptions()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			keys := make([]string, len(models))
			for i, m := range models {
				keys[i] = m.Key()
			}
			if jsonFlag(cmd) {
				result := map[string]any{
					"propositions": sc.Propositions,
					"constraint":   constraint,
					"models":       keys,
					"count":        len(models),
				}
				if satisfies != nil {
					result["check"] = check
					result["satisfies"] = *satisfies
				}
				return writeJSON(out, result)
			}

			if len(sc.Propositions) > 0 {
				fmt.Fprintf(out, "%s %s\n", label("Agenda:    "), strings.Join(sc.Propositions, " "))
			}
			if constraint != "" {
				fmt.Fprintf(out, "%s %s\n", label("Constraint:"), constraint)
			}
			fmt.Fprintln(out, header(fmt.Sprintf("Models (%d):", len(models))))
			for i, m := range models {
				fmt.Fprintf(out, "  %2d  %s\n", i, m.Key())
			}
			if satisfies != nil {
				verdict := "satisfies"
				if !*satisfies {
					verdict = warnStyle.Render("violates")
				}
				fmt.Fprintf(out, "\n%s %s the constraints\n", check, verdict)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("props", nil, "Proposition letters in order, e.g. p,q,r")
	cmd.Flags().StringArray("constraint", nil, "Integrity constraint in prefix notation (repeatable)")
	cmd.Flags().String("check", "", "Report whether this interpretation satisfies the constraints")
	return cmd
}
