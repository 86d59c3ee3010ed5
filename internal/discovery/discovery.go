// Package discovery locates the API schema document, falling back to the
// host's in-process route table when no network endpoint answers.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/routes"
	"github.com/bobmcallan/apibridge/internal/schema"
)

// maxSchemaSize caps the schema response body.
const maxSchemaSize = 50 << 20

var (
	// ErrSchemaDisabled is returned when the host flag enabling the schema endpoint is off.
	ErrSchemaDisabled = errors.New("schema discovery is disabled")
	// ErrSchemaUnavailable is returned when neither the network nor the route table yields paths.
	ErrSchemaUnavailable = errors.New("schema not found")
)

// FlagSource reads host feature flags.
type FlagSource interface {
	IsEnabled(ctx context.Context, key string) bool
}

// Config holds discovery settings.
type Config struct {
	Endpoints []string
	Timeout   time.Duration
	FlagKey   string
	APIRoot   string
}

// Discoverer retrieves schemas. Safe for concurrent use.
type Discoverer struct {
	client *http.Client
	flags  FlagSource
	table  routes.Table
	cfg    Config
	logger *common.Logger

	mu     sync.RWMutex
	cached *schema.Schema
}

// New creates a Discoverer. client should carry the short connect timeout;
// cfg.Timeout bounds each candidate request. table may be nil.
func New(client *http.Client, flags FlagSource, table routes.Table, cfg Config, logger *common.Logger) *Discoverer {
	cfg.APIRoot = "/" + strings.Trim(cfg.APIRoot, "/")
	if cfg.APIRoot == "/" {
		cfg.APIRoot = ""
	}
	return &Discoverer{
		client: client,
		flags:  flags,
		table:  table,
		cfg:    cfg,
		logger: logger,
	}
}

// Discover checks the feature flag, tries each endpoint against baseURL in
// order, then the route table. A successful result replaces the cached
// schema. A cancelled or expired ctx stops discovery before the route table
// is consulted.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (*schema.Schema, error) {
	if d.flags == nil || !d.flags.IsEnabled(ctx, d.cfg.FlagKey) {
		return nil, fmt.Errorf("%w: run `apibridge config set %s 1` to enable it", ErrSchemaDisabled, d.cfg.FlagKey)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	for _, endpoint := range d.cfg.Endpoints {
		s, err := d.fetch(ctx, baseURL+endpoint)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("schema discovery interrupted: %w", ctxErr)
			}
			d.logger.Debug().Str("endpoint", endpoint).Err(err).Msg("schema endpoint failed, trying next")
			continue
		}
		d.logger.Info().
			Str("endpoint", endpoint).
			Int("paths", s.Len()).
			Int("operations", s.OperationCount()).
			Msg("schema discovered")
		d.store(s)
		return s, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("schema discovery interrupted: %w", err)
	}

	s := d.fromRoutes()
	if s.Empty() {
		d.logger.Warn().Int("endpoints", len(d.cfg.Endpoints)).Msg("schema discovery failed on all endpoints and the route table is empty")
		return nil, fmt.Errorf("%w: check the API base url and schema configuration", ErrSchemaUnavailable)
	}
	d.logger.Info().Int("paths", s.Len()).Msg("schema built from local route table")
	d.store(s)
	return s, nil
}

// Cached returns the last successfully discovered schema, or nil.
func (d *Discoverer) Cached() *schema.Schema {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

func (d *Discoverer) store(s *schema.Schema) {
	d.mu.Lock()
	d.cached = s
	d.mu.Unlock()
}

func (d *Discoverer) fetch(ctx context.Context, target string) (*schema.Schema, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("schema endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return schema.Parse(body)
}

// fromRoutes builds a minimal schema from the in-process route table.
func (d *Discoverer) fromRoutes() *schema.Schema {
	s := schema.New()
	if d.table == nil {
		return s
	}
	for _, r := range d.table.Routes() {
		method := strings.ToLower(r.Method)
		summary := r.Description
		if summary == "" {
			summary = r.Service
		}
		if summary == "" {
			summary = r.Path
		}
		service := r.Service
		if service == "" {
			service = "api"
		}
		s.Add(d.cfg.APIRoot+r.Path, method, schema.Operation{
			Summary:     summary,
			OperationID: service + "_" + method,
			Parameters:  []schema.Parameter{},
		})
	}
	return s
}
