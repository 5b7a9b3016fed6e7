// Package config loads the storefront server configuration from a YAML file.
// Command-line flags are applied on top by the caller.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/motoshop/storefront/lib/endpoint"
)

// Engines the server can run on.
const (
	EngineChi  = "chi"
	EngineEcho = "echo"
)

// minKeyLen is the shortest props key accepted from configuration.
const minKeyLen = 16

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds the server settings.
type Config struct {
	Listen         string            `yaml:"listen"`
	APIHost        string            `yaml:"api_host"`
	PropsKey       string            `yaml:"props_key"`
	RequestTimeout time.Duration     `yaml:"request_timeout"`
	LogLevel       string            `yaml:"log_level"`
	SecureCookies  bool              `yaml:"secure_cookies"`
	SessionTTL     time.Duration     `yaml:"session_ttl"`
	Engine         string            `yaml:"engine"`
	Endpoints      map[string]string `yaml:"endpoints"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Listen:         ":8080",
		APIHost:        "http://localhost:8000",
		RequestTimeout: 15 * time.Second,
		LogLevel:       "info",
		SessionTTL:     24 * time.Hour,
		Engine:         EngineChi,
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// The result is not validated, so flags can still be applied.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen is empty", ErrInvalid)
	}
	u, err := url.Parse(c.APIHost)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api_host %q is not an http(s) URL", ErrInvalid, c.APIHost)
	}
	if c.PropsKey != "" && len(c.PropsKey) < minKeyLen {
		return fmt.Errorf("%w: props_key needs at least %d bytes", ErrInvalid, minKeyLen)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalid)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}
	if c.Engine != EngineChi && c.Engine != EngineEcho {
		return fmt.Errorf("%w: engine %q, want %s or %s", ErrInvalid, c.Engine, EngineChi, EngineEcho)
	}
	if _, err := c.EndpointTable(); err != nil {
		return fmt.Errorf("%w: endpoints: %w", ErrInvalid, err)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

// EndpointTable returns the default backend table with the configured
// overrides applied.
func (c *Config) EndpointTable() (endpoint.Table, error) {
	return endpoint.Default().With(c.Endpoints)
}

// Key returns the props key. Without a configured key a random one is
// generated, which invalidates every outstanding component URL on restart;
// generated reports when that happened.
func (c *Config) Key() (key []byte, generated bool, err error) {
	if c.PropsKey != "" {
		return []byte(c.PropsKey), false, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generating props key: %w", err)
	}
	return key, true, nil
}
