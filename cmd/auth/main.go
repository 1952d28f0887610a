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
	"time"

	"playlist_auth/internal/auth"
	"playlist_auth/internal/config"
	"playlist_auth/internal/lib/jwt"
	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/lib/metrics"
	"playlist_auth/internal/lib/password"
	"playlist_auth/internal/models"
	"playlist_auth/internal/rabbitmq"
	"playlist_auth/internal/resettoken"
	"playlist_auth/internal/storage/memory"
	"playlist_auth/internal/storage/postgres"
	"playlist_auth/internal/storage/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.MustLoad(config.Path("./config/config.yaml"))

	log := sl.Setup(cfg.Env, os.Stdout)

	log.Info("starting auth service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("auth service stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("auth service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if err := postgres.Migrate(postgres.MigrationURL(cfg)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer storage.Close()

	resetRepo, closeResetRepo, err := setupResetRepo(ctx, cfg, storage)
	if err != nil {
		return err
	}
	defer closeResetRepo()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer msgBroker.Close()

	issuer := jwt.NewIssuer(cfg.Tokens.SessionSecret, jwt.DefaultTTL)
	resets := resettoken.New(log, resetRepo, models.ResetTokenTTL)

	authService := auth.New(
		log,
		storage,
		storage,
		password.New(),
		issuer,
		resets,
		msgBroker,
		cfg.HTTPServer.PublicURL,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	router := setupRouter(log, authService, issuer, registry, cfg.HTTPServer.SecureCookies)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server is running", slog.String("address", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return resets.RunSweeper(gCtx, cfg.ResetTokens.SweepInterval)
	})

	g.Go(func() error {
		<-gCtx.Done()

		log.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupResetRepo(
	ctx context.Context,
	cfg *config.Config,
	pg *postgres.PostgresRepo,
) (resettoken.Repository, func(), error) {
	switch cfg.ResetTokens.Storage {
	case config.ResetStorePostgres:
		return pg, func() {}, nil
	case config.ResetStoreRedis:
		repo, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}

		return repo, repo.Close, nil
	case config.ResetStoreMemory:
		return memory.NewResetTokenRepo(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown reset token storage %q", cfg.ResetTokens.Storage)
	}
}
