package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir, err := os.MkdirTemp("", "sqlite_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE activity_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			week_number INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create activity_log table: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func newTestRepository(t *testing.T) (*ActivityLogRepository, func()) {
	db, cleanup := setupTestDB(t)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return NewActivityLogRepository(db, logger), cleanup
}

func TestActivityLogRepository_InsertAndSelectOrdered(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	rows := []*models.ActivityLogEntry{
		models.NewActivityLogEntry(2, 1),
		models.NewActivityLogEntry(1, 1),
		models.NewActivityLogEntry(3, 1),
	}
	rows[1].Fields["workout"] = "run"

	if err := repo.InsertMany(ctx, rows); err != nil {
		t.Fatalf("InsertMany() failed: %v", err)
	}

	entries, err := repo.SelectAllOrderedBy(ctx, models.ColumnWeekNumber, true)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, want := range []int{1, 2, 3} {
		if entries[i].WeekNumber != want {
			t.Errorf("entries[%d].WeekNumber = %d, want %d", i, entries[i].WeekNumber, want)
		}
	}
	if entries[0].Fields["workout"] != "run" {
		t.Errorf("workout = %v, want run", entries[0].Fields["workout"])
	}
	if _, ok := entries[0].Fields[models.ColumnID]; !ok {
		t.Error("Expected id in selected fields")
	}

	desc, err := repo.SelectAllOrderedBy(ctx, models.ColumnWeekNumber, false)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}
	if desc[0].WeekNumber != 3 {
		t.Errorf("desc[0].WeekNumber = %d, want 3", desc[0].WeekNumber)
	}
}

func TestActivityLogRepository_SelectEmpty(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()

	entries, err := repo.SelectAllOrderedBy(context.Background(), models.ColumnWeekNumber, true)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", entries)
	}

	raw, _ := json.Marshal(entries)
	if string(raw) != "[]" {
		t.Errorf("JSON = %s, want []", raw)
	}
}

func TestActivityLogRepository_UpdateWhere(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	rows := []*models.ActivityLogEntry{
		models.NewActivityLogEntry(1, 1),
		models.NewActivityLogEntry(1, 2),
		models.NewActivityLogEntry(2, 2),
	}
	if err := repo.InsertMany(ctx, rows); err != nil {
		t.Fatalf("InsertMany() failed: %v", err)
	}

	err := repo.UpdateWhere(ctx,
		map[string]interface{}{models.ColumnWeekNumber: 1, models.ColumnDayOfWeek: models.Day("Tuesday")},
		map[string]interface{}{"steps": 5000, "workout": "swim"},
	)
	if err != nil {
		t.Fatalf("UpdateWhere() failed: %v", err)
	}

	entries, err := repo.SelectAllOrderedBy(ctx, models.ColumnID, true)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}

	updated := 0
	for _, e := range entries {
		steps, ok := e.Fields["steps"]
		if !ok {
			continue
		}
		updated++
		if e.WeekNumber != 1 || e.DayOfWeek.Value() != 2 {
			t.Errorf("Unexpected row updated: week %d day %v", e.WeekNumber, e.DayOfWeek.Value())
		}
		if steps != json.Number("5000") {
			t.Errorf("steps = %v, want 5000", steps)
		}
		if e.Fields["workout"] != "swim" {
			t.Errorf("workout = %v, want swim", e.Fields["workout"])
		}
	}
	if updated != 1 {
		t.Errorf("Expected 1 updated row, got %d", updated)
	}
}

func TestActivityLogRepository_UpdateNoMatch(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()

	err := repo.UpdateWhere(context.Background(),
		map[string]interface{}{models.ColumnWeekNumber: 9, models.ColumnDayOfWeek: 7},
		map[string]interface{}{"steps": 1},
	)
	if err != nil {
		t.Errorf("UpdateWhere() with no matching rows failed: %v", err)
	}
}

func TestActivityLogRepository_InvalidInput(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.SelectAllOrderedBy(ctx, "data", true); !repositories.IsInvalidQuery(err) {
		t.Errorf("Expected invalid query for order field, got %v", err)
	}

	err := repo.UpdateWhere(ctx,
		map[string]interface{}{models.ColumnWeekNumber: 1},
		map[string]interface{}{models.ColumnCreatedAt: "now"},
	)
	if !repositories.IsInvalidQuery(err) {
		t.Errorf("Expected invalid query for reserved column, got %v", err)
	}

	if err := repo.InsertMany(ctx, nil); !repositories.IsInvalidQuery(err) {
		t.Errorf("Expected invalid query for empty insert, got %v", err)
	}
}

func TestActivityLogRepository_DayOfWeekColumn(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	// Names and numeric strings are stored as ISO day numbers
	rows := []*models.ActivityLogEntry{
		models.NewActivityLogEntry(1, "Wed"),
		models.NewActivityLogEntry(1, json.Number("5")),
	}
	if err := repo.InsertMany(ctx, rows); err != nil {
		t.Fatalf("InsertMany() failed: %v", err)
	}

	entries, err := repo.SelectAllOrderedBy(ctx, models.ColumnDayOfWeek, true)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}
	if entries[0].DayOfWeek.Value() != 3 || entries[1].DayOfWeek.Value() != 5 {
		t.Errorf("days = %v, %v, want 3, 5", entries[0].DayOfWeek.Value(), entries[1].DayOfWeek.Value())
	}

	tests := []struct {
		name string
		day  interface{}
	}{
		{"out of range", 99},
		{"zero", json.Number("0")},
		{"unknown name", "Rest day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.InsertMany(ctx, []*models.ActivityLogEntry{models.NewActivityLogEntry(2, tt.day)})
			if !repositories.IsInvalidQuery(err) {
				t.Errorf("InsertMany() error = %v, want invalid query", err)
			}

			err = repo.UpdateWhere(ctx,
				map[string]interface{}{models.ColumnWeekNumber: 1, models.ColumnDayOfWeek: models.Day(tt.day)},
				map[string]interface{}{"steps": 1},
			)
			if !repositories.IsInvalidQuery(err) {
				t.Errorf("UpdateWhere() error = %v, want invalid query", err)
			}
		})
	}
}

func TestActivityLogRepository_InsertDropsStoreManagedColumns(t *testing.T) {
	repo, cleanup := newTestRepository(t)
	defer cleanup()
	ctx := context.Background()

	row := models.NewActivityLogEntry(4, 3)
	row.Fields[models.ColumnID] = 99
	row.Fields[models.ColumnCreatedAt] = "2020-01-01T00:00:00Z"
	row.Fields["mood"] = "good"

	if err := repo.InsertMany(ctx, []*models.ActivityLogEntry{row}); err != nil {
		t.Fatalf("InsertMany() failed: %v", err)
	}

	entries, err := repo.SelectAllOrderedBy(ctx, models.ColumnWeekNumber, true)
	if err != nil {
		t.Fatalf("SelectAllOrderedBy() failed: %v", err)
	}
	if got := entries[0].Fields[models.ColumnID]; got == int64(99) {
		t.Error("Expected id to be assigned by the store")
	}
	if entries[0].Fields["mood"] != "good" {
		t.Errorf("mood = %v, want good", entries[0].Fields["mood"])
	}
}
