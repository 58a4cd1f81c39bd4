package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Simplici0/calcoz/internal/config"
	"github.com/Simplici0/calcoz/internal/db"
	"github.com/Simplici0/calcoz/internal/logging"
	"github.com/Simplici0/calcoz/internal/migrations"
	"github.com/Simplici0/calcoz/internal/obs"
	"github.com/Simplici0/calcoz/internal/plan"
	"github.com/Simplici0/calcoz/internal/seed"
	"github.com/Simplici0/calcoz/internal/store"
)

// devSessionSecret signs state cookies when no secret is configured in development.
const devSessionSecret = "calcoz-dev-secret"

type server struct {
	cfg      config.Config
	db       *sql.DB
	store    *store.Store
	states   *plan.Codec
	logger   *zap.Logger
	metrics  *obs.Metrics
	registry *prometheus.Registry
	validate *validator.Validate
	pages    pages
	now      func() time.Time
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid server config: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(ctx, database, logger); err != nil {
			logger.Fatal("failed to run database migrations", zap.Error(err))
		}
	}

	if cfg.SeedTemplates {
		stats, err := seed.Run(ctx, database, seed.DefaultStarters())
		if err != nil {
			logger.Fatal("failed to seed starter templates", zap.Error(err))
		}
		logger.Info("starter templates seeded", zap.Int("inserted", stats.Inserts), zap.Int("skipped", stats.Skipped))
	}

	srv, err := newServer(cfg, database, logger)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.AppEnv))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-shutdownCtx.Done()
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(drainCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newServer(cfg config.Config, database *sql.DB, logger *zap.Logger) (*server, error) {
	tmpl, err := loadPages()
	if err != nil {
		return nil, err
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = devSessionSecret
	}

	s := &server{
		cfg:      cfg,
		db:       database,
		store:    store.New(database),
		states:   plan.NewCodec(secret),
		logger:   logger,
		validate: newValidator(),
		pages:    tmpl,
		now:      time.Now,
	}

	if cfg.MetricsEnabled {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		s.metrics = obs.NewMetrics("calcoz", s.registry)
	}

	return s, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.RequestLogger{Logger: s.logger}.Middleware)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(obs.HTTPObs{Metrics: s.metrics}.Middleware)
	}
	r.Use(s.stateMiddleware)

	r.Get("/healthz", s.handleHealthz)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Get("/plan", s.handlePlanForm)
	r.Post("/plan", s.handlePlanSubmit)
	r.Post("/plan/reset", s.handlePlanReset)

	r.Group(func(r chi.Router) {
		r.Use(s.requirePlan)
		r.Get("/", s.handleHome)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/currency", s.handleCurrencySubmit)
		r.Get("/calculations/{id}", s.handleCalculationDetail)
		r.Get("/calculations/{id}/export.{format}", s.handleCalculationExport)
		r.Get("/templates", s.handleTemplatesList)
		r.Post("/templates", s.handleTemplatesCreate)
		r.Post("/templates/{id}/delete", s.handleTemplatesDelete)
		r.Get("/templates/{id}/load", s.handleTemplatesLoad)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins(),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Get("/currencies", s.apiCurrencies)
		r.Get("/plans", s.apiPlans)
		r.Get("/state", s.apiGetState)
		r.Put("/state", s.apiPutState)
		r.Post("/calculate", s.apiCalculate)
		r.Get("/calculations/{id}", s.apiGetCalculation)
		r.Post("/sensitivity", s.apiSensitivity)
		r.Post("/export/{format}", s.apiExport)
		r.Get("/templates", s.apiListTemplates)
		r.Post("/templates", s.apiCreateTemplate)
		r.Get("/templates/{id}", s.apiGetTemplate)
		r.Delete("/templates/{id}", s.apiDeleteTemplate)
	})

	return r
}

func (s *server) allowedOrigins() []string {
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		return s.cfg.CORSAllowedOrigins
	}
	if s.cfg.IsDev() {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return nil
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
