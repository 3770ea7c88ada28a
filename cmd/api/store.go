package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"usermanagement/internal/config"
	"usermanagement/internal/database"
	"usermanagement/internal/repository"
)

// openUserStore connects the configured backend and prepares its schema.
// The returned func releases the connection.
func openUserStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (repository.UserStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error().Err(err).Msg("mongo disconnect error")
			}
		}

		repo := repository.NewMongoUserRepository(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return repository.WithTimeout(repo, cfg.Store.Timeout), closeFn, nil

	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		repo := repository.NewPostgresUserRepository(pool)
		return repository.WithTimeout(repo, cfg.Store.Timeout), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
