package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHTTPClient_Timeouts(t *testing.T) {
	c := NewHTTPClient(Options{Timeout: 5 * time.Second, ConnectTimeout: 2 * time.Second, InsecureSkipVerify: true})

	if c.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if !tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected TLS verification disabled")
	}
	if tr.TLSHandshakeTimeout != 2*time.Second {
		t.Errorf("expected 2s handshake timeout, got %s", tr.TLSHandshakeTimeout)
	}
}

func TestNewHTTPClient_ConnectTimeoutDefaultsToTimeout(t *testing.T) {
	c := NewHTTPClient(Options{Timeout: 30 * time.Second})
	tr := c.Transport.(*http.Transport)
	if tr.TLSHandshakeTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %s", tr.TLSHandshakeTimeout)
	}
	if tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("verification should stay on unless requested")
	}
}

func TestNewHTTPClient_ReachesSelfSignedServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(Options{Timeout: 5 * time.Second, InsecureSkipVerify: true})
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("expected self-signed server to be reachable: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}
