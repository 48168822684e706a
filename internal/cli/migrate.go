package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assessment-service/internal/config"
	infmongo "assessment-service/internal/infra/mongo"
	"assessment-service/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations for the configured driver.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Postgres.URL == "" {
			return fmt.Errorf("postgres url not configured")
		}
		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		group, err := postgres.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if group.IsZero() {
			log.Info("no new migrations")
			return nil
		}
		log.Info("migrations applied", zap.String("group", group.String()))
	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("mongo uri not configured")
		}
		client, db, err := infmongo.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := infmongo.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		log.Info("indexes ensured", zap.String("database", cfg.Mongo.Database))
	default:
		log.Info("storage driver has no schema", zap.String("driver", cfg.Storage.Driver))
	}
	return nil
}
