// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Google   GoogleConfig
	Grist    GristConfig
	Cache    CacheConfig
	Fetch    FetchConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 90s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// GoogleConfig holds Google Sheets access settings.
type GoogleConfig struct {
	// CredentialsBase64 is base64-encoded service-account JSON (required)
	CredentialsBase64 string `env:"GOOGLE_CREDENTIALS_JSON_BASE64" required:"true" secret:"true"`
}

// GristConfig holds Grist access settings.
type GristConfig struct {
	// ServerURL is the Grist server (default: https://docs.getgrist.com)
	ServerURL string `env:"GRIST_SERVER_URL" default:"https://docs.getgrist.com"`

	// APIKey authenticates Grist requests (required)
	APIKey string `env:"GRIST_API_KEY" required:"true" secret:"true"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	// TTL is how long a materialized table stays fresh (default: 15s)
	TTL time.Duration `env:"CACHE_TTL" default:"15s"`

	// MaxEntries bounds the number of cached tables (default: 100)
	MaxEntries int `env:"CACHE_MAX_ENTRIES" default:"100"`
}

// FetchConfig holds upstream fetch settings.
type FetchConfig struct {
	// MaxConcurrent is the maximum number of parallel provider calls (default: 8)
	MaxConcurrent int `env:"FETCH_MAX_CONCURRENT" default:"8"`

	// MaxWait is how long to wait for a fetch slot (default: 10s)
	MaxWait time.Duration `env:"FETCH_MAX_WAIT" default:"10s"`

	// Timeout bounds a single provider HTTP request (default: 60s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"60s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSOrigins is a comma-separated list of allowed origins (default: *)
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// RequireAPIKey enables X-API-Key authentication on data routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS" secret:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
