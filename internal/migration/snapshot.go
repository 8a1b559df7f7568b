// Package migration moves activity log data between stores through JSON
// snapshot files.
package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/adapters/storage"
	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
)

// SnapshotVersion is written into every exported snapshot
const SnapshotVersion = 1

// maxKeyAttempts bounds the suffixes tried when an export key is taken
const maxKeyAttempts = 9

// SnapshotPrefix starts the key of every exported snapshot
const SnapshotPrefix = "activity_log-"

// Snapshot is the file format written by Export
type Snapshot struct {
	Version    int                        `json:"version"`
	ExportedAt time.Time                  `json:"exported_at"`
	Source     string                     `json:"source,omitempty"`
	Entries    []*models.ActivityLogEntry `json:"entries"`
}

// MigrationResult contains the results of an export or import
type MigrationResult struct {
	Key      string
	Entries  int
	Warnings []string
	Duration time.Duration
}

// JSONMigrator exports the activity log to snapshot files and imports them back
type JSONMigrator struct {
	repo    repositories.ActivityLogRepository
	storage storage.FileStorage
	logger  *logrus.Logger
	now     func() time.Time
}

// NewJSONMigrator creates a new migrator
func NewJSONMigrator(repo repositories.ActivityLogRepository, files storage.FileStorage, logger *logrus.Logger) *JSONMigrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &JSONMigrator{
		repo:    repo,
		storage: files,
		logger:  logger,
		now:     time.Now,
	}
}

// Export writes every entry, ordered by week, to a new snapshot file
func (m *JSONMigrator) Export(ctx context.Context, source string) (*MigrationResult, error) {
	start := m.now()

	entries, err := m.repo.SelectAllOrderedBy(ctx, models.ColumnWeekNumber, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}

	snapshot := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: start.UTC(),
		Source:     source,
		Entries:    entries,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	opts := &storage.StoreOptions{
		Metadata: map[string]string{
			"entries": fmt.Sprint(len(entries)),
			"source":  source,
		},
	}
	stamp := SnapshotPrefix + start.UTC().Format("20060102T150405.000Z")
	key := stamp + ".json"
	for attempt := 1; ; attempt++ {
		err = m.storage.Store(ctx, key, data, opts)
		if !storage.IsAlreadyExists(err) || attempt > maxKeyAttempts {
			break
		}
		// Another export landed in the same millisecond
		key = fmt.Sprintf("%s-%d.json", stamp, attempt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	result := &MigrationResult{Key: key, Entries: len(entries), Duration: m.now().Sub(start)}
	m.logger.WithFields(logrus.Fields{
		"key":     key,
		"entries": result.Entries,
	}).Info("Activity log exported")

	return result, nil
}

// Validate checks a snapshot without touching the store
func (m *JSONMigrator) Validate(ctx context.Context, key string) (*MigrationResult, error) {
	_, result, err := m.load(ctx, key)
	return result, err
}

// Import inserts the entries of a snapshot in one bulk insert. Store-managed
// columns are dropped so the target assigns fresh ids. With dryRun the
// snapshot is only validated.
func (m *JSONMigrator) Import(ctx context.Context, key string, dryRun bool) (*MigrationResult, error) {
	start := m.now()

	rows, result, err := m.load(ctx, key)
	if err != nil {
		return result, err
	}
	if dryRun {
		m.logger.WithField("entries", len(rows)).Info("Dry run: snapshot is valid, nothing imported")
		return result, nil
	}
	if len(rows) == 0 {
		result.Warnings = append(result.Warnings, "snapshot has no entries")
		return result, nil
	}

	if err := m.repo.InsertMany(ctx, rows); err != nil {
		return result, fmt.Errorf("failed to insert entries: %w", err)
	}

	result.Duration = m.now().Sub(start)
	m.logger.WithFields(logrus.Fields{
		"key":     key,
		"entries": result.Entries,
	}).Info("Activity log imported")

	return result, nil
}

// load reads a snapshot and turns it into insertable rows
func (m *JSONMigrator) load(ctx context.Context, key string) ([]*models.ActivityLogEntry, *MigrationResult, error) {
	result := &MigrationResult{Key: key, Warnings: make([]string, 0)}

	data, err := m.storage.Retrieve(ctx, key)
	if err != nil {
		return nil, result, fmt.Errorf("failed to read snapshot: %w", err)
	}

	entries, err := decodeSnapshot(data)
	if err != nil {
		return nil, result, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}

	seen := make(map[string]bool, len(entries))
	rows := make([]*models.ActivityLogEntry, 0, len(entries))
	for i, entry := range entries {
		if entry == nil || !entry.HasWeekNumber() || !entry.HasDayOfWeek() {
			return nil, result, fmt.Errorf("entry %d: week_number and day_of_week are required", i)
		}

		day := entry.DayOfWeek.String()
		if n, err := entry.DayOfWeek.Number(); err == nil {
			day = strconv.Itoa(n)
		}
		id := fmt.Sprintf("%d/%s", entry.WeekNumber, day)
		if seen[id] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("entry %d duplicates week %d day %s", i, entry.WeekNumber, day))
		}
		seen[id] = true

		rows = append(rows, withoutStoreColumns(entry))
	}

	result.Entries = len(rows)
	return rows, result, nil
}

// decodeSnapshot accepts a Snapshot object or a bare entry array as
// returned by the getData action
func decodeSnapshot(data []byte) ([]*models.ActivityLogEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []*models.ActivityLogEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal(trimmed, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	return snapshot.Entries, nil
}

func withoutStoreColumns(entry *models.ActivityLogEntry) *models.ActivityLogEntry {
	row := models.NewActivityLogEntry(entry.WeekNumber, entry.DayOfWeek)
	for k, v := range entry.Fields {
		if _, reserved := models.ReservedColumns[k]; reserved {
			continue
		}
		row.Fields[k] = v
	}
	return row
}
