package mcp

import (
	"net/http"
	"sync"

	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/mark3labs/mcp-go/server"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *server.StreamableHTTPServer
	logger     *common.Logger

	mu    sync.RWMutex
	tools []catalog.ToolDescriptor
}

// NewHandler creates a stateless streamable HTTP handler for s. tools is the
// catalog registered on s, kept for listing.
func NewHandler(s *server.MCPServer, tools []catalog.ToolDescriptor, logger *common.Logger) *Handler {
	streamable := server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
	)
	return &Handler{
		streamable: streamable,
		logger:     logger,
		tools:      tools,
	}
}

// Catalog returns a copy of the registered tools.
func (h *Handler) Catalog() []catalog.ToolDescriptor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]catalog.ToolDescriptor, len(h.tools))
	copy(result, h.tools)
	return result
}

// SetCatalog records the tools now registered on the server.
func (h *Handler) SetCatalog(tools []catalog.ToolDescriptor) {
	h.mu.Lock()
	h.tools = tools
	h.mu.Unlock()
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
