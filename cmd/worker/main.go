package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"usermanagement/internal/cache"
	"usermanagement/internal/config"
	"usermanagement/internal/log"
	"usermanagement/internal/provisioning"
	"usermanagement/internal/queue"
	"usermanagement/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	// delivery is the operator log; the api only queues the passkey
	processor := tasks.NewProcessor(provisioning.NewLogProvisioner(logger), logger)
	consumer := queue.NewConsumer(client, cfg.Provisioning, logger, processor)

	logger.Info().
		Str("stream", cfg.Provisioning.Stream).
		Str("group", cfg.Provisioning.Group).
		Msg("worker starting")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited")
}
