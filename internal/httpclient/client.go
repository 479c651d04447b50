// Package httpclient builds the tuned *http.Client shared by the provider
// clients.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config holds client and transport timeouts.
type Config struct {
	// Timeout bounds the whole request, body included. A context deadline
	// can still cut it shorter.
	Timeout time.Duration

	DialTimeout     time.Duration
	KeepAlive       time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// UserAgent is sent on every request when set.
	UserAgent string
}

// DefaultConfig returns settings suited to spreadsheet-sized API responses.
func DefaultConfig() Config {
	return Config{
		Timeout:             60 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshake:        5 * time.Second,
		ResponseHeader:      30 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		UserAgent:           "sheetserve",
	}
}

// New returns an *http.Client configured from cfg.
func New(cfg Config) *http.Client {
	return &http.Client{
		Transport: NewTransport(cfg),
		Timeout:   cfg.Timeout,
	}
}

// NewTransport returns the round tripper used by New. It is exposed so
// callers that wrap transports (OAuth2) keep the same tuning.
func NewTransport(cfg Config) http.RoundTripper {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	var tr http.RoundTripper = &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}

	if cfg.UserAgent != "" {
		tr = &userAgentTransport{base: tr, userAgent: cfg.UserAgent}
	}
	return tr
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}
