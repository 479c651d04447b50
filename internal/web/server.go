// Package web provides the HTTP server that re-serves spreadsheet and
// document tables as files.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/sheetserve/internal/cache"
	"github.com/JonMunkholm/sheetserve/internal/config"
	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/table"
	mw "github.com/JonMunkholm/sheetserve/internal/web/middleware"
)

// TableService is the part of core.Service the handlers use.
type TableService interface {
	ListWorksheets(ctx context.Context, spreadsheetID string) ([]string, error)
	WorksheetTable(ctx context.Context, req core.WorksheetRequest) (*table.Table, error)
	ListDocTables(ctx context.Context, docID string) ([]string, error)
	DocTable(ctx context.Context, docID, tableID string) (*table.Table, error)
	CacheStats() cache.Stats
	LimiterStatus() core.FetchLimiterStatus
}

// Server is the HTTP server.
type Server struct {
	service TableService
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
	started time.Time
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service TableService, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		started: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(mw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(withClientIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/csv", "application/json"))
	s.router.Use(middleware.GetHead)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	origins := s.cfg.Security.CORSOrigins
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "X-API-Key", mw.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", mw.RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(origins),
		MaxAge:           300,
	}))

	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
			r.Use(s.limiter.middleware)
		}
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Get("/google/{sheetID}", s.handleListWorksheets)
		r.Get("/google/{sheetID}/{file}", s.handleWorksheet)

		r.Get("/grist/{docID}", s.handleListDocTables)
		r.Get("/grist/{docID}/{file}", s.handleDocTable)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		w.Header().Set("X-Frame-Options", "DENY")

		// Responses are data files or JSON, never pages.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
