// Package mermaid exposes mermaid diagram rendering to MCP hosts: a tool that
// screens diagram source and a widget resource that renders it client-side.
package mermaid

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const ServerVersion = "1.0.0"

type ServerConfig struct {
	// OwnerName prefixes the server name reported to clients.
	OwnerName string
	Logger    *slog.Logger
	// Recorder is optional.
	Recorder Recorder
}

// ServerName is the name reported in the initialize handshake.
func ServerName(ownerName string) string {
	return ownerName + " Mermaid App"
}

// NewServer builds an MCP server with the render tool and widget resource
// registered. It holds no per-client state, so a fresh one may be built for
// every request.
func NewServer(cfg ServerConfig) *server.MCPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hooks := &server.Hooks{}
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, _ any, err error) {
		logger.ErrorContext(ctx, "mcp error", "method", method, "id", id, "error", err)
	})

	srv := server.NewMCPServer(
		ServerName(cfg.OwnerName),
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)

	registerRenderTool(srv, logger, cfg.Recorder)
	registerWidgetResource(srv, logger)

	return srv
}
