package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/config"
)

func newTestCLI() (*cli, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	c := &cli{
		stdout:    stdout,
		stderr:    stderr,
		newLogger: func(*config.Config) *common.Logger { return common.NewSilentLogger() },
	}
	return c, stdout, stderr
}

// writeConfig writes a config pointing at baseURL with storage in a temp dir.
func writeConfig(t *testing.T, baseURL string, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "apibridge.toml")
	content := fmt.Sprintf(`
[api]
base_url = %q

[storage.badger]
path = %q

[logging]
outputs = ["console"]
level = "error"
%s
`, baseURL, filepath.Join(dir, "db"), extra)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/default/schema":
			w.Write([]byte(`{"paths":{"/rest/V1/products/{sku}":{"get":{"summary":"Get product"}}}}`))
		case "/rest/V1/products/abc":
			w.Write([]byte(`{"sku":"abc"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(c *cli, args ...string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestConfigSearchPaths_Deduplicated(t *testing.T) {
	paths := configSearchPaths()
	seen := map[string]bool{}
	for _, p := range paths {
		abs, _ := filepath.Abs(p)
		if seen[abs] {
			t.Errorf("duplicate path %s", p)
		}
		seen[abs] = true
	}
	if len(paths) == 0 {
		t.Error("expected candidate paths")
	}
}

func TestConfigSetGet(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost", "")

	c, _, _ := newTestCLI()
	if err := run(c, "--config", cfgPath, "config", "set", config.DefaultFlagKey, "1"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	c, stdout, _ := newTestCLI()
	if err := run(c, "--config", cfgPath, "config", "get", config.DefaultFlagKey); err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "1" {
		t.Errorf("expected 1, got %q", stdout.String())
	}

	c, _, _ = newTestCLI()
	if err := run(c, "--config", cfgPath, "config", "unset", config.DefaultFlagKey); err != nil {
		t.Fatalf("config unset failed: %v", err)
	}

	c, _, _ = newTestCLI()
	if err := run(c, "--config", cfgPath, "config", "get", config.DefaultFlagKey); err == nil {
		t.Error("expected not-found error after unset")
	}
}

func TestConfigList(t *testing.T) {
	cfgPath := writeConfig(t, "http://localhost", "\n[flags]\n\"webapi/swagger/enable\" = 0\n")

	c, stdout, _ := newTestCLI()
	if err := run(c, "--config", cfgPath, "config", "list"); err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "webapi/swagger/enable = 0") {
		t.Errorf("expected flag default in listing, got %q", stdout.String())
	}
}

func TestTools_DisabledFlag(t *testing.T) {
	api := fakeAPI(t)
	cfgPath := writeConfig(t, api.URL, "")

	c, _, _ := newTestCLI()
	err := run(c, "--config", cfgPath, "tools")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
	if !strings.Contains(err.Error(), "config set webapi/swagger/enable 1") {
		t.Errorf("error should tell the user how to enable discovery: %v", err)
	}
}

func TestToolsAndCall(t *testing.T) {
	api := fakeAPI(t)
	cfgPath := writeConfig(t, api.URL, "\n[flags]\n\"webapi/swagger/enable\" = 1\n")

	c, stdout, stderr := newTestCLI()
	if err := run(c, "--config", cfgPath, "tools"); err != nil {
		t.Fatalf("tools failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "get_products") || !strings.Contains(stdout.String(), "/rest/V1/products/{sku}") {
		t.Errorf("unexpected tools output %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "1 tools") {
		t.Errorf("expected tool count on stderr, got %q", stderr.String())
	}

	c, stdout, _ = newTestCLI()
	if err := run(c, "--config", cfgPath, "call", "get_products", "--args", `{"sku":"abc"}`); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &body); err != nil {
		t.Fatalf("call output is not JSON: %v (%s)", err, stdout.String())
	}
	if body["sku"] != "abc" {
		t.Errorf("unexpected call output %v", body)
	}
}

func TestCall_RejectsInvalidArgs(t *testing.T) {
	c, _, _ := newTestCLI()
	err := run(c, "call", "get_products", "--args", "[1]")
	if err == nil || !strings.Contains(err.Error(), "--args") {
		t.Errorf("expected --args error, got %v", err)
	}
}

func TestSchema(t *testing.T) {
	api := fakeAPI(t)
	cfgPath := writeConfig(t, api.URL, "\n[flags]\n\"webapi/swagger/enable\" = \"yes\"\n")

	c, stdout, _ := newTestCLI()
	if err := run(c, "--config", cfgPath, "schema"); err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "/rest/V1/products/{sku}") {
		t.Errorf("unexpected schema output %q", stdout.String())
	}
}

func TestServe_StartupFailure(t *testing.T) {
	api := fakeAPI(t)
	cfgPath := writeConfig(t, api.URL, "")

	c, _, _ := newTestCLI()
	err := run(c, "--config", cfgPath, "serve", "--stdio")
	if err == nil {
		t.Fatal("expected startup error when discovery is disabled")
	}
}

func TestServe_UnknownTransport(t *testing.T) {
	api := fakeAPI(t)
	cfgPath := writeConfig(t, api.URL, "\n[flags]\n\"webapi/swagger/enable\" = 1\n")

	c, _, _ := newTestCLI()
	err := run(c, "--config", cfgPath, "serve", "--transport", "carrier-pigeon")
	if err == nil || !strings.Contains(err.Error(), "unknown transport") {
		t.Errorf("expected unknown transport error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	c, stdout, _ := newTestCLI()
	if err := run(c, "version"); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "apibridge version ") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}
