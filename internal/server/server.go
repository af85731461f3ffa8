// Package server exposes the tool registry over MCP stdio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"hostbox/internal/audit"
	"hostbox/internal/observability"
	"hostbox/internal/tools"
)

// Version is the server version reported in the MCP handshake.
const Version = "1.0.0"

// Server wires the registry into an MCP stdio server.
type Server struct {
	mcp     *mcpserver.MCPServer
	logger  *slog.Logger
	metrics *observability.Metrics
	audit   *audit.Store
}

// New builds the server and registers every tool in the registry.
func New(reg *tools.Registry, logger *slog.Logger, metrics *observability.Metrics, auditStore *audit.Store) (*Server, error) {
	s := &Server{
		mcp: mcpserver.NewMCPServer(
			"hostbox",
			Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		logger:  logger,
		metrics: metrics,
		audit:   auditStore,
	}
	for _, t := range reg.All() {
		mcpTool, err := toMCPTool(t)
		if err != nil {
			return nil, fmt.Errorf("registering %s: %w", t.Name(), err)
		}
		s.mcp.AddTool(mcpTool, s.handlerFor(t))
	}
	logger.Debug("server assembled", "tools", len(reg.All()))
	return s, nil
}

// Serve runs the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.mcp)
}

func toMCPTool(t tools.Tool) (mcp.Tool, error) {
	schema, err := json.Marshal(t.InputSchema())
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("marshaling schema: %w", err)
	}
	return mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema), nil
}

// handlerFor adapts a tool into an MCP handler. Business failures stay
// plain text results; only malformed invocations set isError.
func (s *Server) handlerFor(t tools.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.NewString()
		params := req.GetArguments()
		start := time.Now()

		if err := t.Validate(params); err != nil {
			s.logger.Debug("tool rejected", "id", id, "tool", t.Name(), "error", err)
			s.metrics.ObserveInvocation(t.Name(), "invalid", time.Since(start))
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := t.Execute(ctx, params)
		duration := time.Since(start)
		if err != nil {
			s.logger.Warn("tool error", "id", id, "tool", t.Name(), "error", err)
			s.metrics.ObserveInvocation(t.Name(), "invalid", duration)
			return mcp.NewToolResultError(err.Error()), nil
		}

		status := "success"
		if !res.Success {
			status = "failure"
		}
		s.metrics.ObserveInvocation(t.Name(), status, duration)
		if outcome, ok := res.Metadata["outcome"].(string); ok {
			s.metrics.ObserveSandbox(outcome)
		}
		s.audit.Record(t.Name(), summarizeParams(params), status, duration)
		s.logger.Debug("tool completed", "id", id, "tool", t.Name(), "status", status, "duration", duration)

		return mcp.NewToolResultText(res.Output), nil
	}
}

// summarizeParams renders the invocation arguments for the audit trail,
// bounded so large file contents never land in the store.
func summarizeParams(params map[string]any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	const maxDetail = 512
	if len(data) > maxDetail {
		return string(data[:maxDetail]) + "..."
	}
	return string(data)
}
