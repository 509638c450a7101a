// Package server exposes the campaign analysis as a JSON HTTP API.
//
// Every request builds its own filter and view from the configured defaults
// and the query string, then recomputes from the current catalog snapshot.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
)

// Defaults are the configured analysis settings a request starts from.
type Defaults struct {
	Filter    analysis.Filter
	View      analysis.View
	Weighting analysis.Weighting
}

// ReloadFunc reads the campaign source again.
type ReloadFunc func(ctx context.Context) (*ingest.Result, error)

// Server serves the analysis API over a catalog.
type Server struct {
	catalog  *storage.Catalog
	defaults Defaults
	reload   ReloadFunc
	router   *chi.Mux
}

// New creates a Server. reload may be nil, which disables POST /api/reload.
func New(catalog *storage.Catalog, defaults Defaults, allowedOrigins []string, reload ReloadFunc) *Server {
	s := &Server{
		catalog:  catalog,
		defaults: defaults,
		reload:   reload,
	}
	s.router = s.routes(allowedOrigins)
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/campaigns", s.handleListCampaigns)
		r.Route("/campaigns/{name}", func(r chi.Router) {
			r.Get("/analysis", s.handleAnalysis)
			r.Get("/threshold", s.handleThreshold)
			r.Get("/coverage", s.handleCoverage)
		})
		r.Get("/aggregate", s.handleAggregate)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// requestLogger logs one line per request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Info("%s %s -> %d (%d bytes, %s) [%s]", r.Method, r.URL.RequestURI(),
				ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
