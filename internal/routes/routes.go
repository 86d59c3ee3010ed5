// Package routes holds the host's in-process table of registered API routes.
// Discovery consults it only when every network schema endpoint fails.
package routes

import (
	"strings"
	"sync"

	"github.com/bobmcallan/apibridge/internal/config"
)

// Route is one registered API route. Path already carries the version
// segment, e.g. /V1/products/{sku}.
type Route struct {
	Path        string
	Method      string
	Description string
	Service     string
}

// Table is a read-only enumeration of registered routes.
type Table interface {
	Routes() []Route
}

// Registry is a concurrency-safe Table that preserves registration order.
type Registry struct {
	mu     sync.RWMutex
	routes []Route
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// FromConfig builds a registry from [[routes]] entries. Entries without a path or method are ignored.
func FromConfig(entries []config.RouteConfig) *Registry {
	r := NewRegistry()
	for _, e := range entries {
		r.Register(Route{
			Path:        e.Path,
			Method:      e.Method,
			Description: e.Description,
			Service:     e.Service,
		})
	}
	return r
}

// Register appends a route. Method is normalized to upper case.
func (r *Registry) Register(route Route) {
	route.Path = strings.TrimSpace(route.Path)
	route.Method = strings.ToUpper(strings.TrimSpace(route.Method))
	if route.Path == "" || route.Method == "" {
		return
	}
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

// Routes returns a copy of the registered routes in registration order.
func (r *Registry) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
