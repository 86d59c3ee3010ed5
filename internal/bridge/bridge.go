// Package bridge composes discovery, catalog building and invocation into the
// surface the tool server registers: list the tools, call a tool.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/client"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/config"
	"github.com/bobmcallan/apibridge/internal/discovery"
	"github.com/bobmcallan/apibridge/internal/invoker"
	"github.com/bobmcallan/apibridge/internal/routes"
	"github.com/bobmcallan/apibridge/internal/schema"
	"github.com/bobmcallan/apibridge/internal/settings"
	"golang.org/x/sync/singleflight"
)

// Settings supplies the feature flag and the host's public address.
type Settings interface {
	discovery.FlagSource
	BaseURL(ctx context.Context) string
}

// state is the product of one successful build.
type state struct {
	catalog *catalog.Catalog
	invoker *invoker.Invoker
}

// Bridge lazily discovers the schema on first use and routes calls to the
// invoker. Safe for concurrent use; concurrent first calls share one build.
type Bridge struct {
	settings   Settings
	discoverer *discovery.Discoverer
	builder    *catalog.Builder
	logger     *common.Logger

	apiClient *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	built *state
}

// New creates a Bridge. No network call is made until the first ListTools or CallTool.
func New(cfg *config.Config, store Settings, table routes.Table, logger *common.Logger) *Bridge {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	discoveryClient := client.NewHTTPClient(client.Options{
		Timeout:            cfg.Discovery.TimeoutDuration(),
		ConnectTimeout:     cfg.Discovery.ConnectTimeoutDuration(),
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
	})
	return &Bridge{
		settings: store,
		discoverer: discovery.New(discoveryClient, store, table, discovery.Config{
			Endpoints: cfg.Discovery.Endpoints,
			Timeout:   cfg.Discovery.TimeoutDuration(),
			FlagKey:   cfg.Discovery.FlagKey,
			APIRoot:   cfg.Discovery.APIRoot,
		}, logger),
		builder: catalog.NewBuilder(
			catalog.WithAPIRoot(cfg.Discovery.APIRoot),
			catalog.WithStrictNames(cfg.Catalog.StrictNames),
			catalog.WithLogger(logger),
		),
		logger: logger,
		apiClient: client.NewHTTPClient(client.Options{
			Timeout:            cfg.API.TimeoutDuration(),
			ConnectTimeout:     cfg.Discovery.ConnectTimeoutDuration(),
			InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		}),
	}
}

// ListTools returns the tool descriptors, building the catalog on first use.
func (b *Bridge) ListTools(ctx context.Context) ([]catalog.ToolDescriptor, error) {
	st, err := b.ensure(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.ToolDescriptor, len(st.catalog.Tools))
	copy(out, st.catalog.Tools)
	return out, nil
}

// CallTool invokes the named tool. It returns invoker.ErrUnknownTool for
// names outside the catalog and discovery errors when the catalog cannot be
// built; HTTP and transport failures are reported in the Result.
func (b *Bridge) CallTool(ctx context.Context, name string, args map[string]any) (invoker.Result, error) {
	st, err := b.ensure(ctx)
	if err != nil {
		return invoker.Result{}, err
	}
	return st.invoker.Invoke(ctx, st.catalog, name, args)
}

// Rebuild rediscovers the schema and replaces the catalog. On failure the
// previous catalog stays in place.
func (b *Bridge) Rebuild(ctx context.Context) error {
	v, err, _ := b.group.Do("rebuild", func() (any, error) {
		return b.build(ctx)
	})
	if err != nil {
		return err
	}
	b.store(v.(*state))
	return nil
}

// Schema returns the most recently discovered schema, or nil before the
// first successful discovery. After a discovery that succeeded but failed to
// build, it is newer than the catalog.
func (b *Bridge) Schema() *schema.Schema {
	return b.discoverer.Cached()
}

// Catalog returns the current catalog, or nil before the first build.
func (b *Bridge) Catalog() *catalog.Catalog {
	if st := b.current(); st != nil {
		return st.catalog
	}
	return nil
}

func (b *Bridge) current() *state {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.built
}

func (b *Bridge) store(st *state) {
	b.mu.Lock()
	b.built = st
	b.mu.Unlock()
}

// ensure returns the current build, running the first one if needed.
// A failed build is not remembered; the next call tries again.
func (b *Bridge) ensure(ctx context.Context) (*state, error) {
	if st := b.current(); st != nil {
		return st, nil
	}
	v, err, _ := b.group.Do("init", func() (any, error) {
		if st := b.current(); st != nil {
			return st, nil
		}
		st, err := b.build(ctx)
		if err != nil {
			return nil, err
		}
		b.store(st)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*state), nil
}

func (b *Bridge) build(ctx context.Context) (*state, error) {
	baseURL, err := discovery.ResolveBaseURL(b.settings.BaseURL(ctx))
	if err != nil {
		return nil, err
	}

	s, err := b.discoverer.Discover(ctx, baseURL)
	if err != nil {
		return nil, err
	}

	c, err := b.builder.Build(s)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool catalog: %w", err)
	}

	b.logger.Info().
		Str("base_url", baseURL).
		Int("tools", len(c.Tools)).
		Msg("api bridge ready")

	return &state{
		catalog: c,
		invoker: invoker.New(b.apiClient, baseURL, b.logger),
	}, nil
}

// compile-time check that the settings store satisfies Settings.
var _ Settings = (*settings.Store)(nil)
