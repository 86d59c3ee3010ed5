package discovery

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ResolveBaseURL normalizes the host's public address for outbound calls.
//
// An https address whose host is a local or test name (*.test, *.local,
// localhost, loopback IP) is downgraded to http. Such deployments commonly
// serve plain HTTP or a self-signed certificate. This is a compatibility
// tradeoff for development hosts; public hosts keep their scheme.
func ResolveBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q: scheme and host are required", raw)
	}
	if strings.EqualFold(u.Scheme, "https") && IsLocalHost(u.Hostname()) {
		u.Scheme = "http"
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// IsLocalHost reports whether host names a local or test deployment.
func IsLocalHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if strings.HasSuffix(host, ".test") || strings.HasSuffix(host, ".local") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
