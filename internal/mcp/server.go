// Package mcp provides an MCP (Model Context Protocol) server for jaggdy.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/jaggdy/internal/config"
	"github.com/nvandessel/jaggdy/internal/logging"
	"github.com/nvandessel/jaggdy/internal/ratelimit"
)

// Server wraps the MCP SDK server and exposes the belief-dynamics tools.
type Server struct {
	server       *sdk.Server
	settings     *config.JaggdyConfig
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger

	logger    *slog.Logger
	decisions *logging.DecisionLogger
}

// Config holds server configuration.
type Config struct {
	Name     string // Server name (e.g., "jaggdy")
	Version  string // Server version
	Settings *config.JaggdyConfig
	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir  string
	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
}

// NewServer creates a new MCP server with the jaggdy tools registered.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server settings: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:       mcpServer,
		settings:     settings,
		toolLimiters: ratelimit.NewToolLimiters(settings.MCP.RatePerMinute, settings.MCP.Burst),
		logger:       logging.OrDiscard(cfg.Logger),
		decisions:    cfg.Decisions,
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	s.logger.Info("mcp server starting", "transport", "stdio")
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if closeErr := s.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases the audit log. It is safe to call more than once.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
