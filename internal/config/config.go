package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig         `toml:"server"`
	API       APIConfig            `toml:"api"`
	Discovery DiscoveryConfig      `toml:"discovery"`
	Catalog   CatalogConfig        `toml:"catalog"`
	Flags     map[string]any       `toml:"flags"`
	Routes    []RouteConfig        `toml:"routes"`
	Storage   StorageConfig        `toml:"storage"`
	Logging   common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains the tool-invocation server settings.
type ServerConfig struct {
	Name      string `toml:"name"`
	Transport string `toml:"transport"` // "stdio" or "http"
	Port      int    `toml:"port"`
	Host      string `toml:"host"`
}

// APIConfig describes the proxied REST API.
type APIConfig struct {
	BaseURL            string `toml:"base_url"`
	Timeout            string `toml:"timeout"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// DiscoveryConfig controls schema discovery.
type DiscoveryConfig struct {
	Endpoints      []string `toml:"endpoints"`
	ConnectTimeout string   `toml:"connect_timeout"`
	Timeout        string   `toml:"timeout"`
	FlagKey        string   `toml:"flag_key"`
	APIRoot        string   `toml:"api_root"`
}

// CatalogConfig controls tool catalog generation.
type CatalogConfig struct {
	StrictNames bool `toml:"strict_names"`
}

// RouteConfig is one entry of the locally registered route table.
type RouteConfig struct {
	Path        string `toml:"path"`
	Method      string `toml:"method"`
	Description string `toml:"description"`
	Service     string `toml:"service"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// TimeoutDuration returns the invocation timeout, falling back to the default on parse failure.
func (c APIConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultAPITimeout)
}

// ConnectTimeoutDuration returns the per-candidate connect timeout.
func (c DiscoveryConfig) ConnectTimeoutDuration() time.Duration {
	return parseDuration(c.ConnectTimeout, DefaultConnectTimeout)
}

// TimeoutDuration returns the per-candidate total timeout.
func (c DiscoveryConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultDiscoveryTimeout)
}

// FlagValues returns the [flags] table with every value rendered as text.
func (c *Config) FlagValues() map[string]string {
	out := make(map[string]string, len(c.Flags))
	for k, v := range c.Flags {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies APIBRIDGE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if baseURL := os.Getenv("APIBRIDGE_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if transport := os.Getenv("APIBRIDGE_TRANSPORT"); transport != "" {
		config.Server.Transport = strings.ToLower(transport)
	}
	if port := os.Getenv("APIBRIDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("APIBRIDGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if badgerPath := os.Getenv("APIBRIDGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("APIBRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if strict := os.Getenv("APIBRIDGE_STRICT_NAMES"); strict != "" {
		if b, err := strconv.ParseBool(strict); err == nil {
			config.Catalog.StrictNames = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, transport string, port int, host string) {
	if transport != "" {
		config.Server.Transport = strings.ToLower(transport)
	}
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
