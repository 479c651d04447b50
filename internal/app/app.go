// Package app wires configuration into a ready core.Service. The server and
// the CLI share it so both talk to providers the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/sheetserve/internal/cache"
	"github.com/JonMunkholm/sheetserve/internal/config"
	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/httpclient"
	"github.com/JonMunkholm/sheetserve/internal/source/grist"
	"github.com/JonMunkholm/sheetserve/internal/source/sheets"
)

// App holds the long-lived objects built from a Config.
type App struct {
	Service *core.Service
	Limiter *core.FetchLimiter
	Cache   *cache.Cache
}

// New builds provider clients, the cache and the service. Bad credentials
// fail here rather than on the first request.
//
// ctx is kept by the Google token source and should live as long as the App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Fetch.Timeout

	creds, err := sheets.DecodeCredentials(cfg.Google.CredentialsBase64)
	if err != nil {
		return nil, err
	}
	sheetsClient, err := sheets.New(ctx, creds, hc)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	gristClient, err := grist.New(grist.Config{
		ServerURL: cfg.Grist.ServerURL,
		APIKey:    cfg.Grist.APIKey,
		HTTP:      httpclient.New(hc),
	})
	if err != nil {
		return nil, fmt.Errorf("create grist client: %w", err)
	}

	c := cache.New(cache.Config{
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
	})
	limiter := core.NewFetchLimiter(cfg.Fetch.MaxConcurrent, cfg.Fetch.MaxWait)

	slog.Debug("providers configured",
		"grist_server", cfg.Grist.ServerURL,
		"cache_ttl", cfg.Cache.TTL,
		"cache_max_entries", cfg.Cache.MaxEntries,
		"fetch_max_concurrent", cfg.Fetch.MaxConcurrent,
	)

	return &App{
		Service: core.NewService(sheetsClient, gristClient, c, limiter),
		Limiter: limiter,
		Cache:   c,
	}, nil
}
