package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/internal/api"
	"github.com/Sternrassler/hotel-offer-gateway/internal/config"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/aggregator"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/cache"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/logging"
	"github.com/Sternrassler/hotel-offer-gateway/pkg/supplier"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Service: "offer-gateway",
		Output:  os.Stderr,
	})

	registry, err := config.LoadRegistry(cfg.Suppliers.RegistryPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load supplier registry")
	}
	logger.Info().
		Strs("suppliers", registry.IDs()).
		Str("path", cfg.Suppliers.RegistryPath).
		Msg("Supplier registry loaded")

	application, err := newApp(context.Background(), cfg, registry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize gateway")
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release resources")
		}
	}()

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      application.handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("http_addr", cfg.HTTP.Addr()).
			Str("cache_backend", cfg.Cache.Backend).
			Dur("cache_ttl", cfg.Cache.TTL).
			Msg("Starting offer gateway")
		errCh <- server.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server stopped")
		}
	}

	logger.Info().Msg("Offer gateway stopped")
}

// app is the wired gateway.
type app struct {
	handler http.Handler
	closers []func() error
}

// Close releases backend connections.
func (a *app) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newApp builds the cache backend, supplier gateway, aggregator and router.
func newApp(ctx context.Context, cfg *config.Config, registry *config.Registry, logger zerolog.Logger) (*app, error) {
	a := &app{}

	store, layer, err := newStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	manager := cache.NewManager(store, cache.Config{
		TTL:    cfg.Cache.TTL,
		Layer:  layer,
		Now:    time.Now,
		Logger: logging.NewLogger("offer-cache"),
	})

	gateway, err := supplier.NewHTTPGateway(supplier.Config{
		Timeout:      cfg.Suppliers.Timeout,
		MaxBodyBytes: cfg.Suppliers.MaxBodyBytes,
		UserAgent:    cfg.Suppliers.UserAgent,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("supplier gateway: %w", err)
	}

	agg := aggregator.New(manager, gateway, aggregator.Config{
		MaxConcurrency: cfg.Suppliers.MaxConcurrency,
		Timeout:        cfg.Suppliers.Timeout,
	})

	handler := api.NewHandler(agg, registry)
	if rs, ok := store.(*cache.RedisStore); ok {
		handler.SetReadyCheck(rs.Ping)
	}

	a.handler = api.NewRouter(handler, logger)
	return a, nil
}

// newStore creates the configured cache store and registers its cleanup on a.
func newStore(ctx context.Context, cfg *config.Config, a *app) (cache.Store, string, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, "", fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		a.closers = append(a.closers, redisClient.Close)
		return cache.NewRedisStore(redisClient, cfg.Redis.Prefix), config.BackendRedis, nil

	default:
		return cache.NewMemoryStore(cfg.Cache.Shards), config.BackendMemory, nil
	}
}
