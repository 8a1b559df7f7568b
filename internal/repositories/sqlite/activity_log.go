package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// ActivityLogRepository stores entries in activity_log with the mutable
// columns kept in a JSON document (data), so any column name works without DDL.
type ActivityLogRepository struct {
	*BaseRepository
}

// NewActivityLogRepository creates a new SQLite activity log repository
func NewActivityLogRepository(db *sql.DB, logger *logrus.Logger) *ActivityLogRepository {
	return &ActivityLogRepository{
		BaseRepository: NewBaseRepository(db, models.ActivityLogTable, logger),
	}
}

// SelectAllOrderedBy implements repositories.ActivityLogRepository
func (r *ActivityLogRepository) SelectAllOrderedBy(ctx context.Context, field string, ascending bool) ([]*models.ActivityLogEntry, error) {
	if err := repositories.ValidateOrderField(field); err != nil {
		return nil, err
	}

	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT id, week_number, day_of_week, data, strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ', created_at)
		FROM %s ORDER BY %s %s, id ASC`, r.table, field, direction)

	rows, err := r.executeQuery(ctx, "select", query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.ActivityLogEntry, 0)
	for rows.Next() {
		var (
			id         int64
			weekNumber int
			dayOfWeek  int
			data       string
			createdAt  sql.NullString
		)
		if err := rows.Scan(&id, &weekNumber, &dayOfWeek, &data, &createdAt); err != nil {
			return nil, repositories.NewRepositoryError("select", r.table, err)
		}

		entry, err := decodeEntry(weekNumber, dayOfWeek, data)
		if err != nil {
			return nil, repositories.NewRepositoryError("select", r.table, err)
		}
		entry.Fields[models.ColumnID] = id
		if createdAt.Valid {
			entry.Fields[models.ColumnCreatedAt] = createdAt.String
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("select", r.table, err)
	}

	return entries, nil
}

// UpdateWhere implements repositories.ActivityLogRepository
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

	columns := make([]string, 0, len(changes))
	for column := range changes {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var setArgs []interface{}
	paths := make([]string, 0, len(columns))
	for _, column := range columns {
		value, err := json.Marshal(changes[column])
		if err != nil {
			return repositories.NewRepositoryError("update", r.table, fmt.Errorf("encode %s: %w", column, err))
		}
		paths = append(paths, "?, json(?)")
		setArgs = append(setArgs, "$."+column, string(value))
	}

	where, whereArgs := r.buildWhereClause(match)
	query := fmt.Sprintf("UPDATE %s SET data = json_set(data, %s) %s", r.table, strings.Join(paths, ", "), where)

	_, err = r.executeExec(ctx, "update", query, append(setArgs, whereArgs...)...)
	return err
}

// InsertMany implements repositories.ActivityLogRepository.
// All rows go into a single INSERT statement.
func (r *ActivityLogRepository) InsertMany(ctx context.Context, rows []*models.ActivityLogEntry) error {
	if len(rows) == 0 {
		return repositories.InvalidQueryError("insert", r.table, "no rows")
	}

	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*3)
	for i, row := range rows {
		data, err := encodeData(row)
		if err != nil {
			return repositories.NewRepositoryError("insert", r.table, fmt.Errorf("row %d: %w", i, err))
		}
		day, err := repositories.NumericDay("insert", row.DayOfWeek)
		if err != nil {
			return err
		}
		placeholders = append(placeholders, "(?, ?, ?)")
		args = append(args, row.WeekNumber, day, data)
	}

	query := fmt.Sprintf("INSERT INTO %s (week_number, day_of_week, data) VALUES %s",
		r.table, strings.Join(placeholders, ", "))

	_, err := r.executeExec(ctx, "insert", query, args...)
	return err
}

// Close implements repositories.ActivityLogRepository
func (r *ActivityLogRepository) Close() error {
	return r.db.Close()
}

// encodeData serialises the mutable columns; store-managed columns are dropped
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

func decodeEntry(weekNumber, dayOfWeek int, data string) (*models.ActivityLogEntry, error) {
	entry := models.NewActivityLogEntry(weekNumber, dayOfWeek)
	if data == "" {
		return entry, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode data column: %w", err)
	}
	for k, v := range fields {
		entry.Fields[k] = v
	}
	return entry, nil
}
