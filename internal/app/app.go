// Package app wires configuration, storage, settings and the API bridge into
// one application shared by every CLI command.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bobmcallan/apibridge/internal/bridge"
	"github.com/bobmcallan/apibridge/internal/catalog"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/config"
	"github.com/bobmcallan/apibridge/internal/handlers"
	"github.com/bobmcallan/apibridge/internal/interfaces"
	"github.com/bobmcallan/apibridge/internal/mcp"
	"github.com/bobmcallan/apibridge/internal/routes"
	"github.com/bobmcallan/apibridge/internal/settings"
	"github.com/bobmcallan/apibridge/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// AreaGlobal is the execution area used by the tool server.
const AreaGlobal = "global"

// ErrAreaAlreadySet is returned by SetArea after the area has been fixed.
var ErrAreaAlreadySet = errors.New("area code is already set")

// App holds all application components and dependencies.
type App struct {
	Config   *config.Config
	Logger   *common.Logger
	Storage  interfaces.StorageManager
	Settings *settings.Store
	Routes   *routes.Registry
	Bridge   *bridge.Bridge

	// Populated by InitMCP.
	MCPServer      *mcpserver.MCPServer
	MCPHandler     *mcp.Handler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	ToolsHandler   *handlers.ToolsHandler

	areaMu sync.Mutex
	area   string
}

// New initializes the application. It opens storage when a badger path is
// configured but makes no network calls.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	var kv interfaces.KeyValueStorage
	if cfg.Storage.Badger.Path != "" {
		mgr, err := storage.NewStorageManager(logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings storage: %w", err)
		}
		a.Storage = mgr
		kv = mgr.KeyValueStorage()
	} else {
		logger.Debug().Msg("no storage path configured, settings are read-only")
	}

	a.Settings = settings.NewStore(kv, cfg.FlagValues(), cfg.API.BaseURL, logger)
	a.Routes = routes.FromConfig(cfg.Routes)
	a.Bridge = bridge.New(cfg, a.Settings, a.Routes, logger)

	logger.Debug().
		Int("routes", a.Routes.Len()).
		Bool("persistent_settings", kv != nil).
		Msg("application initialization complete")

	return a, nil
}

// SetArea fixes the execution area. Only the first call succeeds; later
// calls return ErrAreaAlreadySet, which callers may ignore.
func (a *App) SetArea(area string) error {
	a.areaMu.Lock()
	defer a.areaMu.Unlock()
	if a.area != "" {
		return fmt.Errorf("%w: %s", ErrAreaAlreadySet, a.area)
	}
	a.area = area
	a.Logger.Debug().Str("area", area).Msg("area set")
	return nil
}

// Area returns the execution area, or "" when unset.
func (a *App) Area() string {
	a.areaMu.Lock()
	defer a.areaMu.Unlock()
	return a.area
}

// InitMCP builds the tool catalog, registers it on an MCP server and creates
// the HTTP handlers. Discovery failures are returned.
func (a *App) InitMCP(ctx context.Context) error {
	s, tools, err := mcp.NewServer(ctx, a.Config.Server.Name, common.GetVersion(), a.Bridge, a.Logger)
	if err != nil {
		return err
	}
	a.MCPServer = s

	a.MCPHandler = mcp.NewHandler(s, tools, a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, func() int { return len(a.Tools()) })
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ToolsHandler = handlers.NewToolsHandler(a.Logger, a.Bridge)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// Tools returns the tools registered on the MCP server, or nil before InitMCP.
func (a *App) Tools() []catalog.ToolDescriptor {
	if a.MCPHandler == nil {
		return nil
	}
	return a.MCPHandler.Catalog()
}

// RefreshMCP rediscovers the schema and replaces the tools registered on the
// MCP server. On failure the registered tools are left unchanged.
func (a *App) RefreshMCP(ctx context.Context) error {
	if a.MCPServer == nil {
		return errors.New("mcp server is not initialized")
	}
	if err := a.Bridge.Rebuild(ctx); err != nil {
		return err
	}
	tools, err := a.Bridge.ListTools(ctx)
	if err != nil {
		return err
	}
	count := mcp.RegisterTools(a.MCPServer, a.Bridge, tools, a.Logger)
	a.MCPHandler.SetCatalog(tools)

	a.Logger.Info().Int("tools", count).Msg("MCP tools refreshed")
	return nil
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
