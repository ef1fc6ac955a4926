package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cx-tal-miterani/airline-backoffice/internal/config"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database/memory"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database/mongo"
	"github.com/cx-tal-miterani/airline-backoffice/internal/database/postgres"
	"github.com/cx-tal-miterani/airline-backoffice/internal/handlers"
	"github.com/cx-tal-miterani/airline-backoffice/internal/metrics"
	"github.com/cx-tal-miterani/airline-backoffice/internal/middleware"
	"github.com/cx-tal-miterani/airline-backoffice/internal/router"
	"github.com/cx-tal-miterani/airline-backoffice/internal/service"
	"github.com/cx-tal-miterani/airline-backoffice/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = connectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("idempotency enabled", "redis_addr", cfg.Redis.Addr)
	} else {
		logger.Warn("REDIS_ADDR not set, ticket issuance is not idempotent")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	ledger := service.NewLedger(store,
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithNotifier(hub),
		service.WithMaxCapacity(cfg.Ledger.MaxAircraftCapacity),
	)

	idem := middleware.IdempotencyConfig{
		LockTTL:   cfg.IdempotencyLockTTL(),
		ResultTTL: cfg.Redis.IdempotencyTTL,
	}

	var limiter *middleware.ClientLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = middleware.NewClientLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.Burst,
		})
	}

	h := handlers.NewHandler(ledger, logger)
	r := router.SetupRouter(h, router.Options{
		Logger:      logger,
		Hub:         hub,
		Metrics:     m,
		Gatherer:    reg,
		Redis:       redisClient,
		Idempotency: idem,
		Limiter:     limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "app", cfg.App.Name, "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil
	case config.DriverMongo:
		store, err := mongo.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		return memory.NewStore(), nil
	}
}

func connectRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
