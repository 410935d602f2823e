package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/domicilios-tipovia/internal/config"
	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/web/handlers"
	"github.com/domicilios-tipovia/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     config.WebConfig
	rules      *normalize.RuleTable
	httpServer *http.Server
	router     *mux.Router
	logger     *zap.Logger
}

// NewServer creates a new web server instance
func NewServer(cfg config.WebConfig, rules *normalize.RuleTable, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		config: cfg,
		rules:  rules,
		logger: logger.Named("web"),
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	h := &handlers.NormalizeHandler{
		Planner:  normalize.NewPlanner(s.rules),
		Rules:    s.rules,
		MaxBatch: s.config.MaxBatch,
	}

	s.router.HandleFunc("/healthz", h.Health).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rules", h.GetRules).Methods("GET")
	api.HandleFunc("/normalize", h.NormalizeOne).Methods("GET")
	api.HandleFunc("/normalize", h.NormalizeBatch).Methods("POST")
	api.Use(middleware.APIKey(s.config.APIKey))

	s.router.Use(middleware.RequestLogging(s.logger))
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
