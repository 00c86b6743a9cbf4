// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the deep research pipeline, plain search and the
// report archive over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

const defaultRequestTimeout = 30 * time.Minute

// Researcher runs one deep research request; *research.Pipeline satisfies it.
type Researcher interface {
	Run(ctx context.Context, query string, opts research.RunOptions) (*types.ResearchReport, error)
}

// ReportStore is the archive surface the server uses; *archive.Store
// satisfies it.
type ReportStore interface {
	Save(ctx context.Context, report *types.ResearchReport) error
	Get(ctx context.Context, id string) (*types.ResearchReport, error)
	List(ctx context.Context, limit int) ([]archive.Summary, error)
	Search(ctx context.Context, term string, limit int) ([]archive.Summary, error)
}

// Server is the HTTP server for the deep research API.
type Server struct {
	researcher Researcher
	searcher   research.Searcher
	store      ReportStore
	cfg        types.ServerConfig
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server. searcher and store may be nil, which
// disables plain search and the report endpoints respectively.
func NewServer(researcher Researcher, searcher research.Searcher, store ReportStore, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Server{
		researcher: researcher,
		searcher:   searcher,
		store:      store,
		cfg:        cfg,
		logger:     logging.OrNop(logger),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.MethodNotAllowed(s.handleMethodNotAllowed)
	r.NotFound(s.handleNotFound)

	r.Post("/deep-research", s.handleDeepResearch)
	r.Options("/deep-research", s.handlePreflight)
	r.Post("/search", s.handleSearch)
	r.Options("/search", s.handlePreflight)
	r.Get("/reports", s.handleListReports)
	r.Get("/reports/{id}", s.handleGetReport)
	r.Get("/personas", s.handlePersonas)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server",
		zap.String("addr", addr),
		zap.Bool("production", s.cfg.Production))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// cors sets the permissive headers browser clients of the API expect.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}
