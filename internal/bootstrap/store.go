package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/config"
	"github.com/mamadbah2/dairysense/internal/repository"
	"github.com/mamadbah2/dairysense/internal/repository/mongodb"
	"github.com/mamadbah2/dairysense/internal/repository/postgres"
	"github.com/mamadbah2/dairysense/internal/repository/sqlite"
)

// OpenStore connects the backend selected by cfg.Driver and makes sure its
// schema exists.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxOpenConns, logger.Named("repo.postgres"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMongoDB:
		store, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoURI, cfg.MongoDBName, logger.Named("repo.mongodb"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, logger.Named("repo.sqlite"))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
