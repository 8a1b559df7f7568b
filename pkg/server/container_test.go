package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"activity-log-api/internal/config"
	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
	"activity-log-api/internal/repositories/mock"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment:     "test",
		Port:            "8080",
		LogLevel:        "warn",
		ErrorConvention: config.ConventionLegacy,
		MaxBodyBytes:    1 << 20,
		Store: config.StoreConfig{
			Driver:      repositories.DriverSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "activity.db"),
			AutoMigrate: true,
			Timeout:     time.Second,
		},
		Generation: config.GenerationConfig{Timeout: time.Second},
	}
}

// TestNewContainer verifies that the container opens the store and wires the services
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.ActivityService == nil {
		t.Error("ActivityService is nil")
	}
	if container.InsightService == nil {
		t.Error("InsightService is nil")
	}

	entries, err := container.ActivityService.GetData(context.Background())
	if err != nil {
		t.Errorf("GetData() on a migrated store failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty store, got %d entries", len(entries))
	}

	if err := container.Close(); err != nil {
		t.Errorf("Failed to close container: %v", err)
	}
}

func TestNewContainer_InvalidColumns(t *testing.T) {
	cfg := testConfig(t)
	cfg.UpdatableColumns = []string{"created_at"}

	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Error("Expected error for a reserved updatable column")
	}
}

func TestNewContainerWith(t *testing.T) {
	repo := mock.NewActivityLogRepository(models.NewActivityLogEntry(1, 1))
	cfg := testConfig(t)

	container, err := NewContainerWith(cfg, nil, repo, nil)
	if err == nil {
		t.Fatal("Expected error without a text generator")
	}
	if container != nil {
		t.Error("Expected nil container on error")
	}
}
