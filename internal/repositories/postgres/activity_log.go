// Package postgres provides a Postgres-backed activity log repository using a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
)

// ActivityLogRepository keeps entries in activity_log with the mutable
// columns stored in the jsonb data column.
type ActivityLogRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewActivityLogRepository constructs an ActivityLogRepository.
func NewActivityLogRepository(pool *pgxpool.Pool, logger *logrus.Logger) *ActivityLogRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &ActivityLogRepository{pool: pool, logger: logger}
}

// SelectAllOrderedBy implements repositories.ActivityLogRepository.
func (r *ActivityLogRepository) SelectAllOrderedBy(ctx context.Context, field string, ascending bool) ([]*models.ActivityLogEntry, error) {
	if err := repositories.ValidateOrderField(field); err != nil {
		return nil, err
	}

	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT id, week_number, day_of_week, data, created_at
        FROM activity_log ORDER BY %s %s, id ASC`, field, direction)

	start := time.Now()
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logQuery("select", query, nil, time.Since(start), err)
		return nil, repositories.NewRepositoryError("select", models.ActivityLogTable, err)
	}
	defer rows.Close()

	entries := make([]*models.ActivityLogEntry, 0)
	for rows.Next() {
		var (
			id         int64
			weekNumber int
			dayOfWeek  int
			data       []byte
			createdAt  *time.Time
		)
		if err := rows.Scan(&id, &weekNumber, &dayOfWeek, &data, &createdAt); err != nil {
			r.logQuery("select", query, nil, time.Since(start), err)
			return nil, repositories.NewRepositoryError("select", models.ActivityLogTable, err)
		}

		entry := models.NewActivityLogEntry(weekNumber, dayOfWeek)
		if len(data) > 0 {
			fields, err := decodeData(data)
			if err != nil {
				return nil, repositories.NewRepositoryError("select", models.ActivityLogTable, err)
			}
			entry.Fields = fields
		}
		entry.Fields[models.ColumnID] = id
		if createdAt != nil {
			entry.Fields[models.ColumnCreatedAt] = createdAt.UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	err = rows.Err()
	r.logQuery("select", query, nil, time.Since(start), err)
	if err != nil {
		return nil, repositories.NewRepositoryError("select", models.ActivityLogTable, err)
	}
	return entries, nil
}

// UpdateWhere implements repositories.ActivityLogRepository.
func (r *ActivityLogRepository) UpdateWhere(ctx context.Context, match map[string]interface{}, changes map[string]interface{}) error {
	if err := repositories.ValidateMatch(match); err != nil {
		return err
	}
	if err := repositories.ValidateChanges(changes); err != nil {
		return err
	}
	match, err := repositories.NumericMatch(match)
	if err != nil {
		return err
	}

	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	expr := "data"
	for _, column := range sortedKeys(changes) {
		value, err := json.Marshal(changes[column])
		if err != nil {
			return repositories.NewRepositoryError("update", models.ActivityLogTable, fmt.Errorf("encode %s: %w", column, err))
		}
		expr = fmt.Sprintf("jsonb_set(%s, ARRAY[%s::text], %s::text::jsonb, true)", expr, next(column), next(string(value)))
	}

	conditions := make([]string, 0, len(match))
	for _, column := range sortedKeys(match) {
		conditions = append(conditions, fmt.Sprintf("%s = %s", column, next(match[column])))
	}

	query := fmt.Sprintf("UPDATE activity_log SET data = %s WHERE %s", expr, strings.Join(conditions, " AND "))

	start := time.Now()
	_, err = r.pool.Exec(ctx, query, args...)
	r.logQuery("update", query, args, time.Since(start), err)
	if err != nil {
		return repositories.NewRepositoryError("update", models.ActivityLogTable, err)
	}
	return nil
}

// InsertMany implements repositories.ActivityLogRepository. The rows are
// queued on one pgx.Batch and sent in a single round trip.
func (r *ActivityLogRepository) InsertMany(ctx context.Context, rows []*models.ActivityLogEntry) error {
	if len(rows) == 0 {
		return repositories.InvalidQueryError("insert", models.ActivityLogTable, "no rows")
	}

	const insert = `INSERT INTO activity_log (week_number, day_of_week, data) VALUES ($1, $2, $3::text::jsonb)`

	batch := &pgx.Batch{}
	for i, row := range rows {
		data, err := encodeData(row)
		if err != nil {
			return repositories.NewRepositoryError("insert", models.ActivityLogTable, fmt.Errorf("row %d: %w", i, err))
		}
		day, err := repositories.NumericDay("insert", row.DayOfWeek)
		if err != nil {
			return err
		}
		batch.Queue(insert, row.WeekNumber, day, data)
	}

	start := time.Now()
	br := r.pool.SendBatch(ctx, batch)
	var err error
	for i := 0; i < len(rows); i++ {
		if _, err = br.Exec(); err != nil {
			err = fmt.Errorf("row %d: %w", i, err)
			break
		}
	}
	if closeErr := br.Close(); err == nil {
		err = closeErr
	}

	r.logQuery("insert", insert, []interface{}{len(rows)}, time.Since(start), err)
	if err != nil {
		return repositories.NewRepositoryError("insert", models.ActivityLogTable, err)
	}
	return nil
}

// Close implements repositories.ActivityLogRepository.
func (r *ActivityLogRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *ActivityLogRepository) logQuery(operation, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     models.ActivityLogTable,
		"query":     query,
		"args":      args,
		"duration":  duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Query failed")
	} else {
		r.logger.WithFields(fields).Debug("Query executed")
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeData(entry *models.ActivityLogEntry) (string, error) {
	data := make(map[string]interface{}, len(entry.Fields))
	for k, v := range entry.Fields {
		if _, reserved := models.ReservedColumns[k]; reserved {
			continue
		}
		data[k] = v
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeData(data []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	fields := make(map[string]interface{})
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode data column: %w", err)
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	return fields, nil
}
