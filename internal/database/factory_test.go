package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
	"activity-log-api/internal/repositories/sqlite"
	"activity-log-api/internal/repositories/supabase"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func sqliteConfig(t *testing.T) *repositories.Config {
	tempDir, err := os.MkdirTemp("", "db_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	config := repositories.DefaultConfig()
	config.Driver = repositories.DriverSQLite
	config.Database.Path = filepath.Join(tempDir, "nested", "activity.db")
	config.Migration.Enabled = true
	return config
}

func TestStoreFactory_SQLiteWithMigrations(t *testing.T) {
	factory := NewStoreFactory(testLogger())
	ctx := context.Background()
	config := sqliteConfig(t)

	repo, err := factory.NewActivityLogRepository(ctx, config)
	if err != nil {
		t.Fatalf("NewActivityLogRepository() failed: %v", err)
	}
	defer repo.Close()

	if _, ok := repo.(*sqlite.ActivityLogRepository); !ok {
		t.Fatalf("Expected sqlite repository, got %T", repo)
	}

	row := models.NewActivityLogEntry(1, 1)
	row.Fields["steps"] = 1200
	if err := repo.InsertMany(ctx, []*models.ActivityLogEntry{row}); err != nil {
		t.Fatalf("InsertMany() failed: %v", err)
	}

	entries, err := repo.SelectAllOrderedBy(ctx, models.ColumnWeekNumber, true)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestStoreFactory_MigrationLifecycle(t *testing.T) {
	factory := NewStoreFactory(testLogger())
	ctx := context.Background()
	config := sqliteConfig(t)

	status, err := factory.MigrationStatus(ctx, config)
	if err != nil {
		t.Fatalf("MigrationStatus() failed: %v", err)
	}
	if status.Applied {
		t.Error("Expected no migrations applied on a new database")
	}

	if err := factory.Migrate(ctx, config); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	// Applying twice is a no-op
	if err := factory.Migrate(ctx, config); err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}

	status, err = factory.MigrationStatus(ctx, config)
	if err != nil {
		t.Fatalf("MigrationStatus() failed: %v", err)
	}
	if !status.Applied || status.Version != 1 || status.Dirty {
		t.Errorf("status = %+v, want version 1 applied and clean", status)
	}

	if err := factory.Rollback(ctx, config); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	if err := factory.Rollback(ctx, config); err == nil {
		t.Error("Expected error when nothing is left to roll back")
	}
}

func TestStoreFactory_Supabase(t *testing.T) {
	factory := NewStoreFactory(testLogger())

	config := repositories.DefaultConfig()
	config.Supabase.URL = "https://example.supabase.co"
	config.Supabase.Key = "anon"

	repo, err := factory.NewActivityLogRepository(context.Background(), config)
	if err != nil {
		t.Fatalf("NewActivityLogRepository() failed: %v", err)
	}
	if _, ok := repo.(*supabase.ActivityLogRepository); !ok {
		t.Errorf("Expected supabase repository, got %T", repo)
	}

	if err := factory.Migrate(context.Background(), config); !errors.Is(err, repositories.ErrUnsupported) {
		t.Errorf("Migrate() on supabase = %v, want ErrUnsupported", err)
	}
}

func TestStoreFactory_InvalidConfig(t *testing.T) {
	factory := NewStoreFactory(testLogger())

	tests := []struct {
		name   string
		mutate func(*repositories.Config)
	}{
		{"unknown driver", func(c *repositories.Config) { c.Driver = "mysql" }},
		{"postgres without DSN", func(c *repositories.Config) { c.Driver = repositories.DriverPostgres }},
		{"zero timeout", func(c *repositories.Config) { c.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := repositories.DefaultConfig()
			tt.mutate(config)

			if _, err := factory.NewActivityLogRepository(context.Background(), config); err == nil {
				t.Error("Expected error for invalid configuration")
			}
		})
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	config := repositories.DefaultConfig()
	config.Database.BusyTimeout = 3000

	got := buildSQLiteDSN("/tmp/a.db", config)
	want := "/tmp/a.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=3000"
	if got != want {
		t.Errorf("buildSQLiteDSN() = %q, want %q", got, want)
	}
}
