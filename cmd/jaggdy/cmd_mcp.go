package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Serve the jaggdy tools over the Model Context Protocol on stdin/stdout:

  jaggdy_scenarios   list built-in scenarios
  jaggdy_models      enumerate the models of an agenda
  jaggdy_candidates  next-step candidate models per agent
  jaggdy_simulate    seeded runs of the update rule
  jaggdy_chain       exact long-run outcomes from the Markov chain

Calls are rate limited per tool (mcp.rate_per_minute, mcp.burst) and
recorded in <logging.trace_dir>/audit.jsonl unless --no-audit is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			auditDir := a.cfg.Logging.TraceDir
			if noAudit, _ := cmd.Flags().GetBool("no-audit"); noAudit {
				auditDir = ""
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "jaggdy",
				Version:   version,
				Settings:  a.cfg,
				AuditDir:  auditDir,
				Logger:    a.logger,
				Decisions: a.decisions,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().Bool("no-audit", false, "Do not write the audit log")
	return cmd
}
