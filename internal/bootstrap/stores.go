// Package bootstrap opens the storage backend selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/models"
	"github.com/noah-isme/grievance-api/internal/repository"
	"github.com/noah-isme/grievance-api/internal/repository/memstore"
	"github.com/noah-isme/grievance-api/internal/repository/mongostore"
	"github.com/noah-isme/grievance-api/pkg/config"
	"github.com/noah-isme/grievance-api/pkg/database"
)

// Backend is an opened storage driver.
type Backend struct {
	Stores repository.Stores
	// Ping reports storage reachability for health checks.
	Ping func(ctx context.Context) error
	// Mongo is set only for the mongo driver.
	Mongo *mongostore.Store
}

// OpenBackend connects the configured driver, running migrations or index
// creation as configured.
func OpenBackend(ctx context.Context, cfg *config.Config, registry *models.DepartmentRegistry, logger *zap.Logger) (*Backend, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres, "":
		return openPostgres(ctx, cfg, logger)
	case config.DriverMongo:
		return openMongo(ctx, cfg, registry, logger)
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return &Backend{
			Stores: memstore.New().Stores(),
			Ping:   func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if cfg.Database.MigrateOnBoot {
		if err := Migrate(cfg, logger); err != nil {
			return nil, err
		}
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Sugar().Infow("postgres connected", "host", cfg.Database.Host, "database", cfg.Database.Name)
	return &Backend{
		Stores: repository.NewPostgresStores(db),
		Ping:   db.PingContext,
	}, nil
}

// Migrate applies every pending Postgres migration.
func Migrate(cfg *config.Config, logger *zap.Logger) error {
	migrator, err := database.NewMigrator(database.PostgresURL(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck
	return migrator.Up()
}

func openMongo(ctx context.Context, cfg *config.Config, registry *models.DepartmentRegistry, logger *zap.Logger) (*Backend, error) {
	client, db, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	store := mongostore.New(client, db, registry.PartitionKeys(), logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Sugar().Infow("mongo connected", "database", cfg.Mongo.Database)
	return &Backend{
		Stores: store.Stores(),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Mongo: store,
	}, nil
}
