// Package api serves the dashboard, the JSON API, metrics and the MCP
// endpoint on one HTTP listener.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlerapi "github.com/newthinker/chartdesk/internal/api/handler/api"
	"github.com/newthinker/chartdesk/internal/api/handler/web"
	"github.com/newthinker/chartdesk/internal/api/middleware"
	"github.com/newthinker/chartdesk/internal/api/response"
	"github.com/newthinker/chartdesk/internal/app"
	"github.com/newthinker/chartdesk/internal/mcptools"
	"github.com/newthinker/chartdesk/internal/metrics"
	"github.com/newthinker/chartdesk/internal/storage/signal"
)

// Server represents the HTTP server for chartdesk
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	TemplatesDir string
	CookieName   string
	MCP          bool
	MetricsPath  string
	Version      string
}

// Dependencies are the services the routes call. Alerts defaults to
// the app's own alert history.
type Dependencies struct {
	App     *app.App
	Alerts  signal.Store
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger.Named("http"))(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	a := deps.App
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Web UI routes
	webHandler, err := web.NewHandler(a, cfg.CookieName, cfg.TemplatesDir, s.logger.Named("web"))
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}
	s.mux.HandleFunc("GET /", webHandler.Dashboard)
	s.mux.HandleFunc("POST /action", webHandler.Action)

	s.mux.HandleFunc("GET /api/health", s.handleHealth(a))

	instruments := handlerapi.NewInstrumentsHandler(a)
	s.mux.Handle("GET /api/v1/instruments", protect(instruments.List))
	s.mux.Handle("GET /api/v1/instruments/{symbol}/analysis", protect(instruments.Analysis))
	s.mux.Handle("GET /api/v1/instruments/{symbol}/chart", protect(instruments.Chart))
	s.mux.Handle("GET /api/v1/instruments/{symbol}/positioning", protect(instruments.Positioning))
	s.mux.Handle("GET /api/v1/instruments/{symbol}/commentary", protect(instruments.Commentary))
	s.mux.Handle("GET /api/v1/gainers", protect(instruments.Gainers))

	refresh := handlerapi.NewRefreshHandler(a)
	s.mux.Handle("POST /api/v1/refresh", protect(refresh.Trigger))

	store := deps.Alerts
	if store == nil {
		store = a.AlertStore()
	}
	alerts := handlerapi.NewAlertsHandler(store)
	s.mux.Handle("GET /api/v1/alerts", protect(alerts.List))
	s.mux.Handle("GET /api/v1/alerts/{id}", protect(alerts.GetByID))

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	if cfg.MCP {
		srv := mcptools.NewServer(a, cfg.Version, s.logger.Named("mcp"))
		s.mux.Handle("/mcp", auth(mcptools.NewHTTPHandler(srv)))
	}

	return nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"stats":  a.Stats(),
		})
	}
}
