// Package server exposes the bibliography plugin over a small JSON API:
// seeded vocabularies, value suggestions, citation rendering, and the form
// descriptors the admin UI builds.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bibliography/internal/citation"
	"bibliography/internal/hooks"
	"bibliography/internal/logging"
	"bibliography/internal/suggest"
	"bibliography/internal/vocabulary"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// VocabularyStore is the read side of the term store. *store.Store implements it.
type VocabularyStore interface {
	ListVocabularies(ctx context.Context) ([]vocabulary.Vocabulary, error)
	FindVocabularyByPrefix(ctx context.Context, prefix string) (*vocabulary.Vocabulary, error)
	ListClasses(ctx context.Context, vocabularyID int64) ([]vocabulary.TermRow, error)
	ListProperties(ctx context.Context, vocabularyID int64) ([]vocabulary.TermRow, error)
	CountTerms(ctx context.Context, vocabularyID int64) (classes, properties int, err error)
	Stats(ctx context.Context) (map[string]int, error)
}

// Options wires the server to the plugin components.
type Options struct {
	Store        VocabularyStore
	Settings     citation.SettingsReader
	Citation     *citation.Citation
	Suggesters   *suggest.Registry
	Events       *hooks.Events
	SiteDefaults citation.SiteSettings
	Version      string

	// Caches are exported as metrics, keyed by data type.
	Caches map[string]CacheStatser
}

// Server holds the state for the REST API server.
type Server struct {
	opts    Options
	router  *gin.Engine
	metrics *metrics
}

// New creates a server with its routes registered.
func New(opts Options) *Server {
	if opts.Citation == nil {
		opts.Citation = citation.NewCitation(nil)
	}
	if opts.Suggesters == nil {
		opts.Suggesters = suggest.NewRegistry()
	}
	if opts.Events == nil {
		opts.Events = hooks.NewEvents()
	}
	opts.SiteDefaults = opts.SiteDefaults.WithDefaults()

	s := &Server{
		opts:    opts,
		router:  gin.New(),
		metrics: newMetrics(),
	}
	for name, c := range opts.Caches {
		s.metrics.registerCache(name, c)
	}
	s.router.Use(gin.Recovery(), requestID(), requestLogger(), s.metricsMiddleware())
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/v1")
	v1.GET("/vocabularies", s.handleVocabularies)
	v1.GET("/vocabularies/:prefix", s.handleVocabulary)
	v1.GET("/suggest/:datatype", s.handleSuggest)
	v1.POST("/citation", s.handleCitation)
	v1.GET("/forms/:form", s.handleForm)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Server("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		logging.Server("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
