package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ruby-kim/gov-status/handlers"
	"github.com/ruby-kim/gov-status/internal/config"
	"github.com/ruby-kim/gov-status/internal/logging"
	"github.com/ruby-kim/gov-status/internal/middleware"
	"github.com/ruby-kim/gov-status/internal/stats"
	"github.com/ruby-kim/gov-status/repository"
)

func main() {
	// Load base .env first, then .env.local for local overrides
	config.LoadEnvFiles(".env", ".env.local")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Invalid logging configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	// Redis, when configured, is filled from every store read and answers
	// when the store fails
	var repo repository.StatusReader = store
	if cfg.RedisURL != "" {
		cache, err := repository.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, continuing without cache")
		} else {
			defer cache.Close()
			repo = repository.NewFallbackRepository(
				repository.NewWriteThroughRepository(store, cache, log),
				cache, log, metrics.StoreFallbacks,
			)
			log.Info("Redis cache enabled")
		}
	}

	policies := handlers.NewPolicyStore(nil)
	if cfg.PolicyFile != "" {
		loaded, err := config.LoadPolicies(cfg.PolicyFile)
		if err != nil {
			log.WithError(err).Fatal("Failed to load endpoint policies")
		}
		policies.Set(loaded)
		go func() {
			if err := config.WatchPolicies(ctx, cfg.PolicyFile, log, policies.Set); err != nil {
				log.WithError(err).Error("Policy watcher stopped")
			}
		}()
	}

	r := newRouter(cfg, log, repo, policies, metrics, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// newRouter wires the handlers and middleware around repo
func newRouter(cfg *config.Config, log logrus.FieldLogger, repo repository.StatusReader, policies *handlers.PolicyStore, metrics *middleware.Metrics, reg *prometheus.Registry) chi.Router {
	seed := cfg.TieBreakSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	dashboardHandler := handlers.NewDashboardHandler(repo, handlers.DashboardOptions{
		Sample:   repository.NewSampleRepository(cfg.SampleSeed, nil),
		Policies: policies,
		Chooser:  stats.NewRandomChooser(seed),
		Location: cfg.Location,
		Timeout:  cfg.StoreTimeout,
		Logger:   log,
		Samples:  metrics,
	})
	healthHandler := handlers.NewHealthHandler(repo)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader, handlers.DataSourceHeader},
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", healthHandler.GetHealthz)
	r.Get("/api/ping", healthHandler.GetPing)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)))
		r.Get("/api/overview", dashboardHandler.GetOverview)
		r.Get("/api/agency-stats", dashboardHandler.GetAgencyStats)
		r.Get("/api/history", dashboardHandler.GetHistory)
		r.Get("/api/trend", dashboardHandler.GetTrend)
		r.Get("/api/services", dashboardHandler.GetServices)
		r.Get("/api/stats", dashboardHandler.GetStats)
		r.Get("/api/agency-history", dashboardHandler.GetAgencyHistory)
	})

	// Static file serving (if configured)
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}
