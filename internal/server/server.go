// Package server provides the HTTP server and routing for StockPulse.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/database"
	"github.com/quantlab/stockpulse/internal/modules/advisor"
	advisorhandlers "github.com/quantlab/stockpulse/internal/modules/advisor/handlers"
	"github.com/quantlab/stockpulse/internal/modules/alerts"
	alerthandlers "github.com/quantlab/stockpulse/internal/modules/alerts/handlers"
	"github.com/quantlab/stockpulse/internal/modules/backtest"
	backtesthandlers "github.com/quantlab/stockpulse/internal/modules/backtest/handlers"
	"github.com/quantlab/stockpulse/internal/modules/paper"
	paperhandlers "github.com/quantlab/stockpulse/internal/modules/paper/handlers"
	"github.com/quantlab/stockpulse/internal/modules/portfolio"
	portfoliohandlers "github.com/quantlab/stockpulse/internal/modules/portfolio/handlers"
	"github.com/quantlab/stockpulse/internal/modules/risk"
	riskhandlers "github.com/quantlab/stockpulse/internal/modules/risk/handlers"
	"github.com/quantlab/stockpulse/internal/modules/signals"
	signalhandlers "github.com/quantlab/stockpulse/internal/modules/signals/handlers"
	"github.com/quantlab/stockpulse/internal/modules/technical"
	technicalhandlers "github.com/quantlab/stockpulse/internal/modules/technical/handlers"
)

// Config holds server configuration
type Config struct {
	Log          zerolog.Logger
	Config       *config.Config
	LedgerDB     *database.DB
	PaperService *paper.Service
	Port         int
	DevMode      bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	ledgerDB       *database.DB
	paperService   *paper.Service
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server with all module handlers wired
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		ledgerDB:       cfg.LedgerDB,
		paperService:   cfg.PaperService,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.LedgerDB),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.Log)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(log zerolog.Logger) {
	s.router.Get("/health", s.handleHealth)

	decision := s.cfg.Decision

	generator := signals.NewGenerator(decision, log)
	classifier := risk.NewClassifier(decision, log)
	analyzer := technical.NewAnalyzer(log)
	engine := advisor.NewEngine(decision, log)
	simulator := backtest.NewSimulator(log)
	portfolioAnalyzer := portfolio.NewAnalyzer(log)
	alertGenerator := alerts.NewGenerator(log)

	s.router.Route("/api", func(r chi.Router) {
		signalhandlers.NewSignalHandlers(generator, log).RegisterRoutes(r)
		riskhandlers.NewRiskHandlers(classifier, log).RegisterRoutes(r)
		technicalhandlers.NewTechnicalHandlers(analyzer, log).RegisterRoutes(r)
		advisorhandlers.NewAdvisorHandlers(generator, classifier, analyzer, engine, log).RegisterRoutes(r)
		backtesthandlers.NewBacktestHandlers(simulator, decision, log).RegisterRoutes(r)
		portfoliohandlers.NewPortfolioHandlers(portfolioAnalyzer, log).RegisterRoutes(r)
		alerthandlers.NewAlertHandlers(alertGenerator, log).RegisterRoutes(r)
		paperhandlers.NewPaperHandlers(s.paperService, log).RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})
	})
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Router returns the chi router, used by tests to drive requests directly
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth is a minimal liveness endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Msg("HTTP request")
	})
}
