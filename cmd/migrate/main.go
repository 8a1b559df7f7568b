package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/config"
	"activity-log-api/internal/database"
	"activity-log-api/internal/repositories"
)

func main() {
	var (
		driver  = flag.String("driver", "", "Store driver: sqlite or postgres (default STORE_DRIVER)")
		dbPath  = flag.String("db", "", "SQLite database file path (default SQLITE_PATH)")
		dsn     = flag.String("dsn", "", "Postgres connection string (default DATABASE_URL)")
		action  = flag.String("action", "up", "Migration action: up, down, status")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Setup logger
	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	repoConfig := cfg.RepositoryConfig()
	if *driver != "" {
		repoConfig.Driver = *driver
	}
	if *dbPath != "" {
		absDBPath, err := filepath.Abs(*dbPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to get absolute database path")
		}
		repoConfig.Database.Path = absDBPath
	}
	if *dsn != "" {
		repoConfig.Database.DSN = *dsn
	}

	logger.WithFields(logrus.Fields{
		"driver":  repoConfig.Driver,
		"db_path": repoConfig.Database.Path,
		"action":  *action,
	}).Info("Starting migration tool")

	factory := database.NewStoreFactory(logger)
	ctx := context.Background()

	switch *action {
	case "up":
		if err := factory.Migrate(ctx, repoConfig); err != nil {
			logger.WithError(err).Fatal("Migration up failed")
		}
	case "down":
		if err := factory.Rollback(ctx, repoConfig); err != nil {
			logger.WithError(err).Fatal("Migration down failed")
		}
	case "status":
		if err := showMigrationStatus(ctx, factory, repoConfig); err != nil {
			logger.WithError(err).Fatal("Failed to get migration status")
		}
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: up, down, status")
	}

	logger.Info("Migration tool completed successfully")
}

func showMigrationStatus(ctx context.Context, factory *database.StoreFactory, repoConfig *repositories.Config) error {
	status, err := factory.MigrationStatus(ctx, repoConfig)
	if err != nil {
		return err
	}

	fmt.Printf("Migration Status:\n")
	fmt.Printf("  Driver: %s\n", repoConfig.Driver)
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty: %t\n", status.Dirty)
	fmt.Printf("  Timestamp: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))

	return nil
}
