package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rotalog/internal/cache"
	"rotalog/internal/jwtauth"
	logbookhandler "rotalog/internal/logbook/handler"
	logbookservice "rotalog/internal/logbook/service"
	logbookpg "rotalog/internal/logbook/store/postgres"
	"rotalog/internal/platform/config"
	"rotalog/internal/platform/httpserver"
	"rotalog/internal/platform/logger"
	"rotalog/internal/platform/metrics"
	"rotalog/internal/platform/middleware"
	redisplatform "rotalog/internal/platform/redis"
	"rotalog/internal/progress"
	progresshandler "rotalog/internal/progress/handler"
	pmetrics "rotalog/internal/progress/metrics"
	"rotalog/internal/progress/ports"
	"rotalog/internal/storage"
	verificationhandler "rotalog/internal/verification/handler"
	vmetrics "rotalog/internal/verification/metrics"
	verificationservice "rotalog/internal/verification/service"
	verificationpg "rotalog/internal/verification/store/postgres"
	"rotalog/pkg/platform/audit/publisher"
	"rotalog/pkg/platform/audit/publishers/kafka"
	auditmemory "rotalog/pkg/platform/audit/store/memory"
	auditpg "rotalog/pkg/platform/audit/store/postgres"
)

// logbookStore is everything the services need from the log side of storage.
// Both the in-memory store and the Postgres store satisfy it.
type logbookStore interface {
	logbookservice.LogStore
	logbookservice.Catalog
	ports.RequirementSource
	ports.LogSource
}

// main wires storage, cache, audit, services and the HTTP router. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var (
		logs       logbookStore
		verifs     verificationservice.VerificationStore
		auditStore publisher.Store
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres pool setup failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		logs = logbookpg.New(pool)
		verifs = verificationpg.New(db)
		auditStore = auditpg.New(db)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory storage")
		mem := storage.NewMemory()
		logs = mem
		verifs = mem
		auditStore = auditmemory.NewInMemoryStore()
	}

	var (
		kv          cache.KeyValueStore
		handlerOpts []progresshandler.Option
	)
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		kv = cache.NewRedisStore(redisClient.Client, cfg.Cache.TTL)
	} else {
		local := cache.New(cache.Config{
			DefaultTTL:     cfg.Cache.TTL,
			MaxEntries:     cfg.Cache.MaxEntries,
			MaxMemoryBytes: cfg.Cache.MaxMemoryBytes,
			SweepInterval:  cfg.Cache.SweepInterval,
		})
		defer local.Close()
		kv = local
		handlerOpts = append(handlerOpts, progresshandler.WithCacheStats(local.Stats))
	}

	auditOpts := []publisher.Option{publisher.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafka.New(ctx, cfg.KafkaBrokers, kafka.WithTopic(cfg.AuditTopic))
		if err != nil {
			log.Error("kafka sink setup failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditOpts = append(auditOpts, publisher.WithSink(sink))
	}
	auditPub := publisher.NewPublisher(auditStore, auditOpts...)
	defer auditPub.Close()

	procMetrics := metrics.New()

	logbookSvc := logbookservice.New(logs, logs,
		logbookservice.WithLogger(log),
		logbookservice.WithAuditPublisher(auditPub),
		logbookservice.WithMetrics(procMetrics),
	)
	verificationSvc := verificationservice.New(verifs, logs,
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(auditPub),
		verificationservice.WithMetrics(vmetrics.New()),
	)
	progressSvc := progress.New(logs, logs, kv,
		progress.WithViewTTL(cfg.Cache.TTL),
		progress.WithLogger(log),
		progress.WithMetrics(pmetrics.New()),
		progress.WithAuditPublisher(auditPub),
	)

	validator := jwtauth.NewValidator(cfg.JWTSigningKey)
	progressHandler := progresshandler.New(progressSvc, log, handlerOpts...)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.ClientMetadata)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		logbookhandler.New(logbookSvc, progressSvc, log).Register(r)
		verificationhandler.New(verificationSvc, progressSvc, log).Register(r)
		progressHandler.Register(r)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminTokenHash, log))
		progressHandler.RegisterAdmin(r)
	})

	srv := httpserver.New(cfg.Addr, r, httpserver.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Read:       cfg.HTTP.ReadTimeout,
		Write:      cfg.HTTP.WriteTimeout,
		Idle:       cfg.HTTP.IdleTimeout,
	})

	go func() {
		log.Info("starting rotalog", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
