// Package mcp exposes the relationship index to AI clients over the Model
// Context Protocol. The query surface is deliberately narrow: relationships
// for one element, an explicit rebuild, and index diagnostics.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/elemdex/elemdex/internal/config"
	"github.com/elemdex/elemdex/internal/telemetry"
	"github.com/elemdex/elemdex/internal/trigger"
	"github.com/elemdex/elemdex/pkg/version"
)

// Server is the MCP server for elemdex.
type Server struct {
	mcp      *mcp.Server
	resolver *trigger.Resolver
	config   *config.Config
	logger   *slog.Logger

	mu      sync.RWMutex
	metrics *telemetry.Metrics
}

// NewServer creates a new MCP server. The index manager is supplied through
// a lazy resolver rather than a constructed instance so that server wiring
// never forms an initialization cycle with the index.
func NewServer(resolver *trigger.Resolver, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if resolver == nil {
		return nil, fmt.Errorf("index resolver is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		resolver: resolver,
		config:   cfg,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "elemdex",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// SetMetrics attaches the query metrics collector.
func (s *Server) SetMetrics(m *telemetry.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve starts the MCP server on the given transport.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}
