package handlers

import (
	"net/http"

	"github.com/bobmcallan/apibridge/internal/common"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger    *common.Logger
	toolCount func() int
}

// NewHealthHandler creates a new health handler. toolCount may be nil.
func NewHealthHandler(logger *common.Logger, toolCount func() int) *HealthHandler {
	return &HealthHandler{logger: logger, toolCount: toolCount}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	body := map[string]any{
		"status": "ok",
	}
	if h.toolCount != nil {
		body["tools"] = h.toolCount()
	}
	WriteJSON(w, http.StatusOK, body)
}
