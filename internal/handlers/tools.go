package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/invoker"
)

// ToolBridge lists and calls tools.
type ToolBridge interface {
	ListTools(ctx context.Context) ([]catalog.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (invoker.Result, error)
}

// ToolsHandler serves the tool catalog and direct tool calls over plain JSON.
type ToolsHandler struct {
	logger *common.Logger
	bridge ToolBridge
}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler(logger *common.Logger, bridge ToolBridge) *ToolsHandler {
	return &ToolsHandler{logger: logger, bridge: bridge}
}

// toolsResponse is the body of GET /api/tools.
type toolsResponse struct {
	Count int                      `json:"count"`
	Tools []catalog.ToolDescriptor `json:"tools"`
}

// ServeList handles GET /api/tools.
func (h *ToolsHandler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	tools, err := h.bridge.ListTools(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("tool listing failed")
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, toolsResponse{Count: len(tools), Tools: tools})
}

// ServeCall handles POST /api/tools/{name}. The body is the argument object.
// API failures are returned with status 200 as error payloads, matching what
// an MCP client receives.
func (h *ToolsHandler) ServeCall(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tools/"), "/")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "tool name is required")
		return
	}

	args := map[string]any{}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &args); err != nil {
			WriteError(w, http.StatusBadRequest, "arguments must be a JSON object")
			return
		}
	}

	res, err := h.bridge.CallTool(r.Context(), name, args)
	if err != nil {
		if errors.Is(err, invoker.ErrUnknownTool) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Warn().Str("tool", name).Err(err).Msg("tool call failed")
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
