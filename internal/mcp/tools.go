package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/invoker"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Caller executes a tool by name.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (invoker.Result, error)
}

// BuildMCPTool converts a ToolDescriptor into an mcp.Tool carrying the
// descriptor's input schema verbatim.
func BuildMCPTool(d catalog.ToolDescriptor) (mcp.Tool, error) {
	raw, err := json.Marshal(d.InputSchema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode input schema for %s: %w", d.Name, err)
	}
	return mcp.NewToolWithRawSchema(d.Name, d.Description, raw), nil
}

// GenericToolHandler routes an MCP tool call to the bridge. Transport and
// HTTP failures reach the client as ordinary results holding the error payload.
func GenericToolHandler(c Caller, name string, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := c.CallTool(ctx, name, r.GetArguments())
		if err != nil {
			if errors.Is(err, invoker.ErrUnknownTool) {
				return errorResult(fmt.Sprintf("Error: unknown tool %s", name)), nil
			}
			logger.Warn().Str("tool", name).Err(err).Msg("tool call failed")
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		out, err := json.Marshal(res)
		if err != nil {
			return errorResult("Error: failed to encode tool result"), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(out))}}, nil
	}
}

// RegisterTools replaces the tool set of s with the descriptors and returns
// the number registered. Descriptors whose schema cannot be encoded are
// skipped with a warning.
func RegisterTools(s *server.MCPServer, c Caller, tools []catalog.ToolDescriptor, logger *common.Logger) int {
	serverTools := make([]server.ServerTool, 0, len(tools))
	for _, d := range tools {
		tool, err := BuildMCPTool(d)
		if err != nil {
			logger.Warn().Str("tool", d.Name).Err(err).Msg("skipping tool")
			continue
		}
		serverTools = append(serverTools, server.ServerTool{
			Tool:    tool,
			Handler: GenericToolHandler(c, d.Name, logger),
		})
	}
	s.SetTools(serverTools...)
	return len(serverTools)
}
