package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/apibridge/internal/app"
	"github.com/bobmcallan/apibridge/internal/config"
	"github.com/bobmcallan/apibridge/internal/mcp"
	"github.com/bobmcallan/apibridge/internal/server"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	stdio     bool
	transport string
	port      int
	host      string
}

func (c *cli) serveCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio or streamable HTTP)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(contextOf(cmd), f)
		},
	}
	cmd.Flags().BoolVar(&f.stdio, "stdio", false, "Use stdio transport (shorthand for --transport stdio)")
	cmd.Flags().StringVar(&f.transport, "transport", "", "Transport: stdio or http (overrides config)")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "HTTP port (overrides config)")
	cmd.Flags().StringVar(&f.host, "host", "", "HTTP host (overrides config)")
	return cmd
}

func (c *cli) runServe(ctx context.Context, f serveFlags) error {
	transport := f.transport
	if f.stdio {
		transport = "stdio"
	}

	application, err := c.openApp(func(cfg *config.Config) {
		config.ApplyFlagOverrides(cfg, transport, f.port, f.host)
	})
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.InitMCP(ctx); err != nil {
		return err
	}

	stopReload := watchReload(application)
	defer stopReload()

	switch application.Config.Server.Transport {
	case "stdio":
		fmt.Fprintf(c.stderr, "API bridge ready (%d tools)\n", len(application.Tools()))
		return mcp.ServeStdio(application.MCPServer)
	case "http":
		return c.serveHTTP(application)
	default:
		return fmt.Errorf("unknown transport %q (expected stdio or http)", application.Config.Server.Transport)
	}
}

// serveHTTP runs the HTTP server until interrupted.
func (c *cli) serveHTTP(application *app.App) error {
	logger := application.Logger
	srv := server.New(application)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	fmt.Fprintf(c.stderr, "API bridge ready (%d tools) on http://%s/mcp\n", len(application.Tools()), application.Config.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info().Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}

// watchReload rebuilds the catalog and re-registers the MCP tools on SIGHUP.
// The returned func stops watching.
func watchReload(application *app.App) func() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-hup:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if err := application.RefreshMCP(ctx); err != nil {
					application.Logger.Warn().Err(err).Msg("tool catalog refresh failed, keeping current tools")
				}
				cancel()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(hup)
		close(done)
	}
}
