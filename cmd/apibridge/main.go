// Command apibridge exposes a REST API's operations as MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bobmcallan/apibridge/internal/app"
	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/config"
	"github.com/spf13/cobra"
)

// cli carries the IO and factories shared by every command.
type cli struct {
	stdout      io.Writer
	stderr      io.Writer
	configFiles []string
	newLogger   func(cfg *config.Config) *common.Logger
}

func main() {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr, newLogger: setupLogger}
	if err := c.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "apibridge",
		Short:         "apibridge - expose a REST API as MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringArrayVarP(&c.configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times)")
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.AddCommand(
		c.serveCmd(),
		c.toolsCmd(),
		c.callCmd(),
		c.schemaCmd(),
		c.configCmd(),
		c.versionCmd(),
	)
	return root
}

// loadConfig resolves config files (auto-discovered when none are given)
// and loads them with environment overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	files := c.configFiles
	if len(files) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				files = append(files, path)
				break
			}
		}
	}
	return config.LoadFromFiles(files...)
}

// openApp loads configuration and initializes the application. The caller closes it.
func (c *cli) openApp(apply func(cfg *config.Config)) (*app.App, error) {
	common.LoadVersionFromFile()

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}

	logger := c.newLogger(cfg)
	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := application.SetArea(app.AreaGlobal); err != nil && !errors.Is(err, app.ErrAreaAlreadySet) {
		application.Close()
		return nil, err
	}
	return application, nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried first, with CWD fallbacks after.
// Paths are deduplicated via filepath.Abs.
func configSearchPaths() []string {
	candidates := []string{
		"apibridge.toml",
		"config/apibridge.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "apibridge.toml"),
		filepath.Join(binDir, "config", "apibridge.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// setupLogger creates an arbor logger based on config.
func setupLogger(cfg *config.Config) *common.Logger {
	return common.NewLoggerFromConfig(cfg.Logging)
}

// contextOf returns the command context, or Background when run outside Execute.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
