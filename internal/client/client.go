// Package client builds the shared HTTP clients used for schema discovery and API invocation.
package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Options configures an HTTP client.
type Options struct {
	// Timeout bounds the whole request including reading the body.
	Timeout time.Duration
	// ConnectTimeout bounds TCP connection establishment. Zero means Timeout.
	ConnectTimeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification so self-signed
	// local deployments can be reached.
	InsecureSkipVerify bool
}

// NewHTTPClient creates a client with its own transport.
func NewHTTPClient(opts Options) *http.Client {
	connect := opts.ConnectTimeout
	if connect <= 0 {
		connect = opts.Timeout
	}
	dialer := &net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}, //nolint:gosec // local deployments use self-signed certificates
		TLSHandshakeTimeout:   connect,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
}
