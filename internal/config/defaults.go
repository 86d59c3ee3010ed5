package config

import (
	"time"

	"github.com/bobmcallan/apibridge/internal/common"
)

const (
	DefaultAPITimeout       = 30 * time.Second
	DefaultConnectTimeout   = 2 * time.Second
	DefaultDiscoveryTimeout = 5 * time.Second

	// DefaultFlagKey is the host setting that enables the schema endpoint.
	DefaultFlagKey = "webapi/swagger/enable"
)

// DefaultDiscoveryEndpoints are tried in order against the base URL.
var DefaultDiscoveryEndpoints = []string{
	"/rest/default/schema?services=all",
	"/rest/all/schema?services=all",
	"/rest/default/swagger",
	"/rest/all/swagger",
}

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	endpoints := make([]string, len(DefaultDiscoveryEndpoints))
	copy(endpoints, DefaultDiscoveryEndpoints)

	return &Config{
		Server: ServerConfig{
			Name:      "API Bridge",
			Transport: "stdio",
			Port:      4251,
			Host:      "localhost",
		},
		API: APIConfig{
			BaseURL:            "http://localhost",
			Timeout:            DefaultAPITimeout.String(),
			InsecureSkipVerify: true,
		},
		Discovery: DiscoveryConfig{
			Endpoints:      endpoints,
			ConnectTimeout: DefaultConnectTimeout.String(),
			Timeout:        DefaultDiscoveryTimeout.String(),
			FlagKey:        DefaultFlagKey,
			APIRoot:        "/rest",
		},
		Flags: map[string]any{},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/apibridge",
			},
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "logs/apibridge.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
