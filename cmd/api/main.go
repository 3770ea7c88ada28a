package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"usermanagement/internal/cache"
	"usermanagement/internal/config"
	"usermanagement/internal/handlers"
	"usermanagement/internal/jobs"
	"usermanagement/internal/log"
	"usermanagement/internal/provisioning"
	"usermanagement/internal/repository"
	"usermanagement/internal/security"
	"usermanagement/internal/server"
	"usermanagement/internal/service"
	"usermanagement/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")

	ctx := context.Background()

	users, closeStore, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open user store")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	hasher, err := security.NewHasher(cfg.Security)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init password hasher")
	}

	provisioner, err := provisioning.New(cfg.Provisioning, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init provisioner")
	}

	sessionStore := session.NewStore(redisClient, cfg.Session.KeyPrefix, cfg.Session.TTL)
	sessions := session.NewManager(
		sessionStore,
		security.NewSessionCodec(cfg.Session.Secret, cfg.Session.TTL),
		session.CookieOptions{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure},
		logger,
	)

	bootstrapAdmin(ctx, cfg, users, hasher, provisioner, sessionStore, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, users, redisClient, sessions, hasher, provisioner)
	httpServer, err := server.NewHTTPServer(cfg, logger, handlerSet)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build http server")
	}

	scheduler := jobs.NewScheduler(sessionStore, cfg.Jobs.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, closeStore, redisClient)
}

func bootstrapAdmin(
	ctx context.Context,
	cfg *config.AppConfig,
	users repository.UserStore,
	hasher security.Hasher,
	provisioner service.Provisioner,
	sessions *session.Store,
	logger zerolog.Logger,
) {
	if cfg.Bootstrap.AdminEmail == "" {
		return
	}
	accounts := service.NewAccountService(users, hasher, provisioner, sessions, cfg.Security.PasskeyLength, logger)
	if _, err := accounts.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin failed")
	}
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, closeStore func(), redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("session sweep still running at shutdown")
	}

	closeStore()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
