package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/adapters/storage"
	"activity-log-api/internal/config"
	"activity-log-api/internal/database"
	"activity-log-api/internal/migration"
)

func main() {
	var (
		dir     = flag.String("dir", "./data/snapshots", "Snapshot directory path")
		key     = flag.String("key", "", "Snapshot file name for import and validate")
		action  = flag.String("action", "export", "Action: export, import, validate, list")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		dryRun  = flag.Bool("dry-run", false, "Validate an import without writing to the store")
	)
	flag.Parse()

	// Setup logger
	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDir, err := filepath.Abs(*dir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute snapshot path")
	}

	files, err := storage.NewLocalFileStorage(absDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open snapshot directory")
	}
	defer files.Close()

	logger.WithFields(logrus.Fields{
		"dir":     absDir,
		"action":  *action,
		"dry_run": *dryRun,
	}).Info("Starting snapshot tool")

	ctx := context.Background()

	if *action == "list" {
		if err := listSnapshots(ctx, files); err != nil {
			logger.WithError(err).Fatal("Failed to list snapshots")
		}
		return
	}

	if *action != "export" && *key == "" {
		logger.Fatal("-key is required for import and validate")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	repo, err := database.NewStoreFactory(logger).NewActivityLogRepository(ctx, cfg.RepositoryConfig())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open store")
	}
	defer repo.Close()

	migrator := migration.NewJSONMigrator(repo, files, logger)

	var result *migration.MigrationResult
	switch *action {
	case "export":
		result, err = migrator.Export(ctx, cfg.Store.Driver)
	case "import":
		result, err = migrator.Import(ctx, *key, *dryRun)
	case "validate":
		result, err = migrator.Validate(ctx, *key)
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: export, import, validate, list")
	}

	if result != nil {
		printResult(*action, result)
	}
	if err != nil {
		logger.WithError(err).Fatal("Snapshot " + *action + " failed")
	}

	logger.Info("Snapshot tool completed successfully")
}

func listSnapshots(ctx context.Context, files storage.FileStorage) error {
	snapshots, err := files.List(ctx, migration.SnapshotPrefix)
	if err != nil {
		return err
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots found.")
		return nil
	}

	fmt.Printf("Found %d snapshots:\n", len(snapshots))
	for _, s := range snapshots {
		fmt.Printf("  %s\n", s.Key)
		fmt.Printf("    Size: %d bytes, Entries: %s, Source: %s\n",
			s.Size, s.Metadata["entries"], s.Metadata["source"])
	}
	return nil
}

func printResult(action string, result *migration.MigrationResult) {
	fmt.Printf("\n=== Snapshot %s ===\n", action)
	fmt.Printf("Snapshot: %s\n", result.Key)
	fmt.Printf("Entries: %d\n", result.Entries)
	if result.Duration > 0 {
		fmt.Printf("Duration: %s\n", result.Duration)
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			fmt.Printf("  - %s\n", warning)
		}
	}
}
