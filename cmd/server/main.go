package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"valido/internal/outcome"
	"valido/internal/platform/config"
	"valido/internal/platform/httpserver"
	"valido/internal/platform/logger"
	"valido/internal/platform/metrics"
	"valido/internal/platform/middleware"
	platformredis "valido/internal/platform/redis"
	"valido/internal/platform/token"
	"valido/internal/rules"
	rulestore "valido/internal/rules/store"
	"valido/internal/schema/catalog"
	"valido/internal/screening"
	screeninghandler "valido/internal/screening/handler"
	screeningmetrics "valido/internal/screening/metrics"
	"valido/internal/validation"
	validationhandler "valido/internal/validation/handler"
	validationmetrics "valido/internal/validation/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(os.Getenv("VALIDO_LOG_LEVEL"))
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var catalogOpts []catalog.Option
	if cfg.StrictLength {
		catalogOpts = append(catalogOpts, catalog.StrictLength())
	}
	cat, err := catalog.New(catalogOpts...)
	if err != nil {
		log.Error("schema catalog failed validation", "error", err)
		os.Exit(1)
	}

	// Background resources share one lifecycle context.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := validation.NewEngine(cat)
	validationOpts := []validation.Option{
		validation.WithLogger(log),
		validation.WithMetrics(validationmetrics.New()),
		validation.WithWorkers(cfg.Workers),
	}

	if cfg.PostgresURL != "" {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store := rulestore.NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure rule schema", "error", err)
			os.Exit(1)
		}
		validationOpts = append(validationOpts, validation.WithRuleSource(store))
		log.Info("rule store enabled", "backend", "postgres")
	} else if cfg.RulesFile != "" {
		store, err := loadRulePack(ctx, cfg.RulesFile)
		if err != nil {
			log.Error("failed to load rule pack", "path", cfg.RulesFile, "error", err)
			os.Exit(1)
		}
		validationOpts = append(validationOpts, validation.WithRuleSource(store))
		log.Info("rule store enabled", "backend", "file", "path", cfg.RulesFile)
	}

	publisher := outcome.NewPublisher(cfg.OutcomeBuffer)
	sink, closeSink := buildOutcomeSink(ctx, cfg, log)
	defer closeSink()
	worker := outcome.NewWorker(sink, publisher.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("outcome worker stopped", "error", err)
		}
	}()
	validationOpts = append(validationOpts, validation.WithOutcomePublisher(publisher))

	validationSvc := validation.NewService(engine, validationOpts...)

	screeningOpts := []screening.Option{
		screening.WithLogger(log),
		screening.WithMetrics(screeningmetrics.New()),
	}
	redisClient, err := platformredis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		screeningOpts = append(screeningOpts,
			screening.WithCache(screening.NewRedisCache(redisClient.Client, cfg.ScreeningCacheTTL)))
		log.Info("screening cache enabled", "ttl", cfg.ScreeningCacheTTL)
	}
	screeningSvc := screening.NewService(screeningOpts...)

	router := buildRouter(cfg, log, validationSvc, screeningSvc)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting valido", "addr", cfg.Addr, "auth_mode", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func buildRouter(cfg config.Server, log *slog.Logger, validationSvc *validation.Service, screeningSvc *screening.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Instrument(metrics.New()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		switch cfg.AuthMode {
		case config.AuthJWT:
			tokenSvc := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
			r.Use(middleware.RequireAuth(token.NewMiddlewareAdapter(tokenSvc), log))
		case config.AuthAPIKey:
			r.Use(middleware.RequireAPIKey(cfg.APIKeyHashes, log))
		}

		validationhandler.New(validationSvc, log).Register(r)
		screeninghandler.New(screeningSvc, log).Register(r)
	})

	return r
}

// loadRulePack layers a YAML rule pack on top of the built-in rules.
// Pack rules with a built-in code replace the built-in rule.
func loadRulePack(ctx context.Context, path string) (*rulestore.Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pack, err := rules.LoadYAML(f)
	if err != nil {
		return nil, err
	}
	store, err := rulestore.NewMemoryWithDefaults()
	if err != nil {
		return nil, err
	}
	for _, rule := range pack {
		if err := store.Put(ctx, rule); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func buildOutcomeSink(ctx context.Context, cfg config.Server, log *slog.Logger) (outcome.Sink, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return outcome.NewLogSink(log), func() {}
	}

	sink, err := outcome.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		// Outcomes are advisory; degrade to the log sink rather than refuse
		// to start.
		log.Error("kafka sink unavailable, falling back to log sink", "error", err)
		return outcome.NewLogSink(log), func() {}
	}
	return sink, sink.Close
}
