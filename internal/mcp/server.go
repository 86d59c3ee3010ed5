// Package mcp exposes the API bridge as a Model Context Protocol server over
// stdio or streamable HTTP.
package mcp

import (
	"context"

	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/mark3labs/mcp-go/server"
)

// Bridge is the registration and execution surface the server needs.
type Bridge interface {
	Caller
	ListTools(ctx context.Context) ([]catalog.ToolDescriptor, error)
}

// NewServer lists the bridge's tools and registers each one on a new
// MCPServer. It returns the server and the listed tools.
func NewServer(ctx context.Context, name, version string, b Bridge, logger *common.Logger) (*server.MCPServer, []catalog.ToolDescriptor, error) {
	tools, err := b.ListTools(ctx)
	if err != nil {
		return nil, nil, err
	}

	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)
	count := RegisterTools(s, b, tools, logger)

	logger.Info().Int("tools", count).Msg("MCP server initialized")
	return s, tools, nil
}

// ServeStdio serves s over stdin and stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
