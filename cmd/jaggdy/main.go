package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/config"
	"github.com/nvandessel/jaggdy/internal/logging"
	"github.com/nvandessel/jaggdy/internal/scenario"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jaggdy",
		Short: "Judgment aggregation dynamics on belief graphs",
		Long: `jaggdy studies how agents connected in a graph revise propositional
beliefs by moving to the admissible models closest, in total Hamming
distance, to the beliefs of the agents they listen to.

It enumerates the models of an agenda, runs seeded simulations of the
synchronous update, and builds the Markov chain over belief profiles to
report long-run outcomes exactly.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.jaggdy/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newModelsCmd(),
		newCandidatesCmd(),
		newSimulateCmd(),
		newChainCmd(),
		newGraphCmd(),
		newScenariosCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

// app bundles what every command needs: settings and loggers.
type app struct {
	cfg       *config.JaggdyConfig
	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// loadApp loads configuration and builds the loggers for cmd. Operational
// logs go to stderr; decision traces go to the configured trace directory at
// debug or trace level.
func loadApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		decisions: logging.NewDecisionLogger(cfg.Logging.TraceDir, cfg.Logging.Level),
	}, nil
}

func (a *app) close() {
	a.decisions.Close()
}

// loadScenario resolves a built-in name or a YAML file path.
func (a *app) loadScenario(ref string) (*scenario.Scenario, error) {
	s, err := scenario.Resolve(ref)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("scenario loaded", "name", s.Name, "agents", len(s.Agents))
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonFlag(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}
