// Package config defines the proxy configuration and its YAML/JSON
// loading with validation and defaulting.
package config

import (
	"fmt"
	"net/url"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/mcp"
	"github.com/mcptap/mcptap/pkg/replay"
)

// Defaults applied by Validate.
const (
	DefaultListen     = ":8080"
	DefaultSessionDir = "./sessions"
)

// Config is the full proxy configuration.
type Config struct {
	// Mode selects record or replay.
	Mode capture.Mode `json:"mode" yaml:"mode"`

	// Listen is the address the proxy binds, e.g. ":8080".
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`

	// Servers are the upstream MCP servers.
	Servers []ServerConfig `json:"servers,omitempty" yaml:"servers,omitempty"`

	// Replay configures matching when Mode is replay.
	Replay ReplayConfig `json:"replay,omitempty" yaml:"replay,omitempty"`

	// Storage configures where session artifacts are written.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`

	// Logging configures log level and format.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ServerConfig is one upstream MCP server.
type ServerConfig struct {
	// Name identifies the server in captures and logs.
	Name string `json:"name" yaml:"name"`

	// URL is the server's MCP endpoint.
	URL string `json:"url" yaml:"url"`

	// Tools statically lists the tools this server handles. "*" makes
	// it the catch-all. Empty means discover via tools/list at startup.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// HasStaticTools reports whether the server skips discovery.
func (s *ServerConfig) HasStaticTools() bool {
	return len(s.Tools) > 0
}

// ReplayConfig controls replay-mode matching.
type ReplayConfig struct {
	// Session references the recorded session to serve, by ID or file
	// path. Empty means the most recent saved session.
	Session string `json:"session,omitempty" yaml:"session,omitempty"`

	// Threshold is the minimum semantic match score in (0, 1].
	// Zero means the default.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// OnCacheMiss is what to do when no recording matches:
	// error, passthrough, or mock.
	OnCacheMiss replay.MissPolicy `json:"onCacheMiss,omitempty" yaml:"onCacheMiss,omitempty"`

	// MockResponse is the JSON payload returned on a miss when
	// OnCacheMiss is mock.
	MockResponse RawJSON `json:"mockResponse,omitempty" yaml:"mockResponse,omitempty"`
}

// StorageConfig controls session persistence.
type StorageConfig struct {
	// Dir is the directory session artifacts are written to.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a configuration with all defaults applied and no
// servers.
func Default() *Config {
	cfg := &Config{Mode: capture.ModeRecord}
	cfg.applyDefaults()
	return cfg
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	c.applyDefaults()

	if !c.Mode.IsValid() {
		return fmt.Errorf("invalid mode %q (want record or replay)", c.Mode)
	}

	if c.Mode == capture.ModeRecord && len(c.Servers) == 0 {
		return fmt.Errorf("record mode requires at least one server")
	}

	seen := make(map[string]bool, len(c.Servers))
	wildcards := 0
	for i := range c.Servers {
		srv := &c.Servers[i]
		if srv.Name == "" {
			return fmt.Errorf("server %d: name is required", i)
		}
		if seen[srv.Name] {
			return fmt.Errorf("duplicate server name %q", srv.Name)
		}
		seen[srv.Name] = true

		if srv.URL == "" {
			return fmt.Errorf("server %s: url is required", srv.Name)
		}
		u, err := url.Parse(srv.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server %s: invalid url %q", srv.Name, srv.URL)
		}

		for _, tool := range srv.Tools {
			if tool == mcp.Wildcard {
				wildcards++
			}
		}
	}
	if wildcards > 1 {
		return fmt.Errorf("at most one server may claim the wildcard tool list")
	}

	if c.Replay.Threshold < 0 || c.Replay.Threshold > 1 {
		return fmt.Errorf("replay threshold %v out of range [0, 1]", c.Replay.Threshold)
	}
	if !c.Replay.OnCacheMiss.IsValid() {
		return fmt.Errorf("invalid onCacheMiss policy %q", c.Replay.OnCacheMiss)
	}
	if c.Replay.OnCacheMiss == replay.MissMock && len(c.Replay.MockResponse) == 0 {
		return fmt.Errorf("onCacheMiss mock requires mockResponse")
	}
	if c.Replay.OnCacheMiss == replay.MissPassthrough && len(c.Servers) == 0 {
		return fmt.Errorf("onCacheMiss passthrough requires at least one server")
	}

	return nil
}

// applyDefaults fills zero values.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = capture.ModeRecord
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultSessionDir
	}
	if c.Replay.Threshold == 0 {
		c.Replay.Threshold = replay.DefaultThreshold
	}
	if c.Replay.OnCacheMiss == "" {
		c.Replay.OnCacheMiss = replay.MissError
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
