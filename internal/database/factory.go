package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/repositories"
	"activity-log-api/internal/repositories/postgres"
	"activity-log-api/internal/repositories/sqlite"
	"activity-log-api/internal/repositories/supabase"
)

// StoreFactory opens the configured store backend and builds its repository
type StoreFactory struct {
	logger *logrus.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(logger *logrus.Logger) *StoreFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &StoreFactory{
		logger: logger,
	}
}

// NewActivityLogRepository creates the activity log repository for config.Driver.
// Pending migrations are applied first when config.Migration.Enabled is set.
func (f *StoreFactory) NewActivityLogRepository(ctx context.Context, config *repositories.Config) (repositories.ActivityLogRepository, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Migration.Enabled && (config.IsSQLite() || config.IsPostgreSQL()) {
		if err := f.Migrate(ctx, config); err != nil {
			return nil, err
		}
	}

	switch config.Driver {
	case repositories.DriverSupabase:
		client := &http.Client{Timeout: config.Timeout}
		f.logger.WithField("driver", config.Driver).Info("Using hosted store")
		return supabase.NewActivityLogRepository(config.Supabase, client, f.logger), nil

	case repositories.DriverPostgres:
		pool, err := OpenPostgresPool(ctx, config, f.logger)
		if err != nil {
			return nil, repositories.ConnectionError("open", "postgres", err)
		}
		return postgres.NewActivityLogRepository(pool, f.logger), nil

	case repositories.DriverSQLite:
		db, err := OpenSQLite(ctx, config, f.logger)
		if err != nil {
			return nil, repositories.ConnectionError("open", "sqlite", err)
		}
		return sqlite.NewActivityLogRepository(db, f.logger), nil

	default:
		return nil, fmt.Errorf("%w: store driver %q", repositories.ErrUnsupported, config.Driver)
	}
}

// Migrate applies all pending migrations for the configured SQL driver
func (f *StoreFactory) Migrate(ctx context.Context, config *repositories.Config) error {
	return f.withMigrationManager(ctx, config, func(m *MigrationManager) error {
		return m.RunMigrations()
	})
}

// Rollback reverts the most recent migration
func (f *StoreFactory) Rollback(ctx context.Context, config *repositories.Config) error {
	return f.withMigrationManager(ctx, config, func(m *MigrationManager) error {
		return m.RollbackMigration()
	})
}

// MigrationStatus reports the applied migration version
func (f *StoreFactory) MigrationStatus(ctx context.Context, config *repositories.Config) (*MigrationInfo, error) {
	var info *MigrationInfo
	err := f.withMigrationManager(ctx, config, func(m *MigrationManager) error {
		var err error
		info, err = m.GetMigrationStatus()
		return err
	})
	return info, err
}

// withMigrationManager opens a dedicated connection for schema changes and
// closes it once fn returns.
func (f *StoreFactory) withMigrationManager(ctx context.Context, config *repositories.Config, fn func(*MigrationManager) error) error {
	var (
		db  *sql.DB
		err error
	)

	switch config.Driver {
	case repositories.DriverSQLite:
		db, err = OpenSQLite(ctx, config, f.logger)
	case repositories.DriverPostgres:
		db, err = openPostgresSQL(ctx, config.Database.DSN)
	default:
		return fmt.Errorf("%w: migrations are not managed for store driver %q", repositories.ErrUnsupported, config.Driver)
	}
	if err != nil {
		return repositories.ConnectionError("migrate", config.Driver, err)
	}
	defer db.Close()

	return fn(NewMigrationManager(db, config.Driver, f.logger))
}
