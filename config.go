package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds server configuration. Zero values are replaced by the
// defaults from DefaultConfig.
type Config struct {
	// Port is the TCP port to listen on.
	// Default: 8080
	Port int `toml:"port"`

	// Root is the directory files are served from.
	// Default: "public"
	Root string `toml:"root"`

	// CredentialsFile holds "username:password" lines for the login form.
	// Default: "public/login.txt"
	CredentialsFile string `toml:"credentials_file"`

	// RedirectLocation is the Location sent for GET /redirect.
	// Default: "http://example.com/redirected-page.html"
	RedirectLocation string `toml:"redirect_location"`

	// ReadTimeout bounds reading the request line, headers and body.
	// Default: 30 seconds
	ReadTimeout duration `toml:"read_timeout"`

	// WriteTimeout bounds writing the response.
	// Default: 30 seconds
	WriteTimeout duration `toml:"write_timeout"`

	// ShutdownTimeout is how long in-flight connections may run after the
	// server stops accepting.
	// Default: 5 seconds
	ShutdownTimeout duration `toml:"shutdown_timeout"`

	// MaxConnections is the maximum number of concurrent connections.
	// 0 means unlimited
	// Default: 0 (unlimited)
	MaxConnections int `toml:"max_connections"`

	// MaxBodyBytes is the largest login body accepted.
	// Default: 64 KB
	MaxBodyBytes int `toml:"max_body_bytes"`

	// ExplicitErrors answers malformed requests with 400 and unsupported
	// ones with 501 instead of closing silently.
	// Default: false
	ExplicitErrors bool `toml:"explicit_errors"`

	// MetricsAddr, when set, serves Prometheus metrics on /metrics.
	// Default: "" (disabled)
	MetricsAddr string `toml:"metrics_addr"`
}

// duration lets TOML files spell timeouts as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Port:             8080,
		Root:             "public",
		CredentialsFile:  filepath.Join("public", "login.txt"),
		RedirectLocation: defaultRedirectLocation,
		ReadTimeout:      duration{30 * time.Second},
		WriteTimeout:     duration{30 * time.Second},
		ShutdownTimeout:  duration{5 * time.Second},
		MaxConnections:   0,
		MaxBodyBytes:     64 << 10,
	}
}

// LoadConfigFile decodes a TOML file over cfg. Keys missing from the file
// keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	return nil
}

// applyDefaults fills zero fields the same way DefaultConfig would.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.Root == "" {
		c.Root = def.Root
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = def.CredentialsFile
	}
	if c.RedirectLocation == "" {
		c.RedirectLocation = def.RedirectLocation
	}
	if c.ReadTimeout.Duration == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout.Duration == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ShutdownTimeout.Duration == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	fi, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("root %s is not a directory", c.Root)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max connections must not be negative")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max body bytes must not be negative")
	}
	if c.ReadTimeout.Duration < 0 || c.WriteTimeout.Duration < 0 || c.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
