package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/apibridge/internal/app"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/default/schema":
			w.Write([]byte(`{"paths":{"/rest/V1/products/{sku}":{"get":{"summary":"Get product"}}}}`))
		case "/rest/V1/products/abc":
			w.Write([]byte(`{"sku":"abc"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.Close)

	cfg := config.NewDefaultConfig()
	cfg.API.BaseURL = api.URL
	cfg.Storage.Badger.Path = ""
	cfg.Flags[config.DefaultFlagKey] = true

	a, err := app.New(cfg, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	if err := a.InitMCP(context.Background()); err != nil {
		t.Fatalf("InitMCP failed: %v", err)
	}
	return a
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" || body["tools"] != 1.0 {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRoutes_VersionEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/version", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRoutes_ToolsEndpoints(t *testing.T) {
	srv := New(newTestApp(t))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/tools", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "get_products") {
		t.Errorf("unexpected tools listing %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/api/tools/get_products", strings.NewReader(`{"sku":"abc"}`)))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"sku":"abc"}` {
		t.Errorf("unexpected call response %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/tools/get_products", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestRoutes_MCPEndpoint(t *testing.T) {
	srv := New(newTestApp(t))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "get_products") {
		t.Errorf("expected get_products in tools/list, got %s", w.Body.String())
	}
}

func TestRoutes_APINotFound(t *testing.T) {
	srv := New(newTestApp(t))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/nonexistent", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRoutes_MiddlewareApplied(t *testing.T) {
	srv := New(newTestApp(t))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected X-Correlation-ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}
