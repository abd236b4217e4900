package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"golang.org/x/sync/errgroup"

	"carebridge/internal/audit"
	"carebridge/internal/audit/janitor"
	auditpublisher "carebridge/internal/audit/publisher"
	auditqueue "carebridge/internal/audit/queue"
	auditmemory "carebridge/internal/audit/store/memory"
	auditpostgres "carebridge/internal/audit/store/postgres"
	"carebridge/internal/credentials"
	credcache "carebridge/internal/credentials/cache"
	"carebridge/internal/credentials/provider"
	"carebridge/internal/errtrack"
	"carebridge/internal/integrations"
	"carebridge/internal/platform/config"
	"carebridge/internal/platform/httpserver"
	"carebridge/internal/platform/leader"
	"carebridge/internal/platform/logger"
	platformpostgres "carebridge/internal/platform/postgres"
	platformredis "carebridge/internal/platform/redis"
	httptransport "carebridge/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	db, err := platformpostgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres setup failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	kafka, err := auditpublisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		log.Error("kafka setup failed", "error", err)
		os.Exit(1)
	}
	if kafka != nil {
		defer kafka.Close()
	}

	// Shared stores fall back to in-memory variants when their backing
	// resource is not configured, keeping local runs dependency-free.
	var queueStore audit.QueueStore = auditqueue.NewInMemoryStore()
	var cacheStore credentials.CacheStore = credcache.NewInMemoryStore()
	var gate janitor.Gate = leader.Single{}
	if redisClient != nil {
		queueStore = auditqueue.NewRedisStore(redisClient.Client)
		cacheStore = credcache.NewRedisStore(redisClient.Client)
		gate = leader.New(redisClient.Client, cfg.Audit.LeaderTTL, log)
	}

	type auditStore interface {
		audit.RecordStore
		janitor.PurgeStore
	}
	var recordStore auditStore = auditmemory.NewInMemoryStore()
	if db != nil {
		recordStore = auditpostgres.New(db)
	}

	auditOpts := []audit.Option{
		audit.WithLogger(log),
		audit.WithFlagStore(integrations.NewConfigFlagStore(cfg.Audit.DisabledIntegrations)),
		audit.WithFlushThreshold(cfg.Audit.FlushThreshold),
		audit.WithBatchSize(cfg.Audit.BatchSize),
	}
	if kafka != nil {
		auditOpts = append(auditOpts, audit.WithPublisher(kafka))
	}
	auditService := audit.New(queueStore, recordStore, auditOpts...)

	credProvider, err := buildProvider(ctx, cfg, log)
	if err != nil {
		log.Error("credentials provider setup failed", "error", err)
		os.Exit(1)
	}
	credService := credentials.New(cacheStore, credProvider,
		credentials.WithLogger(log),
		credentials.WithReporter(errtrack.NewLogReporter(log)),
		credentials.WithTTL(cfg.Credentials.CacheTTL),
	)

	clean := janitor.New(auditService, recordStore, gate,
		cfg.Audit.Retention, cfg.Audit.FlushInterval, cfg.Audit.PurgeInterval,
		janitor.WithLogger(log),
	)

	checkers := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		checkers["redis"] = redisClient
	}
	if db != nil {
		checkers["postgres"] = dbChecker{db}
	}
	handler := httptransport.NewHandler(log, credService, checkers)
	router := httptransport.NewRouter(handler, auditService)
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting carebridge", "addr", cfg.Server.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := clean.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
}

// buildProvider selects the credential resolution chain once at startup, so
// the hot path never branches on environment.
func buildProvider(ctx context.Context, cfg config.Config, log *slog.Logger) (credentials.Provider, error) {
	if cfg.Credentials.LocalMode {
		var next provider.Provider
		if cfg.Credentials.TokenExchangeURL != "" {
			next = provider.NewDebugTokenExchange(
				cfg.Credentials.TokenExchangeURL, cfg.Credentials.DebugToken, log)
		}
		localConfig := credentials.Config{APIURL: "http://localhost:3000", Token: "local"}
		return provider.NewFixedLocal(cfg.Credentials.LocalIntegrationID, localConfig, next), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, err
	}
	return provider.NewSecretManager(secretsmanager.NewFromConfig(awsCfg), cfg.AWS.SecretName), nil
}

type dbChecker struct {
	db interface {
		PingContext(ctx context.Context) error
	}
}

func (c dbChecker) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
