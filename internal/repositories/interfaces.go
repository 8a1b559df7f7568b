package repositories

import (
	"context"

	"activity-log-api/internal/models"
)

// ActivityLogRepository is the boundary to the external store holding activity_log rows.
// Implementations make exactly one store round trip per call and never retry.
type ActivityLogRepository interface {
	// SelectAllOrderedBy returns every entry ordered by field
	SelectAllOrderedBy(ctx context.Context, field string, ascending bool) ([]*models.ActivityLogEntry, error)

	// UpdateWhere applies changes to every entry whose columns equal all match values
	UpdateWhere(ctx context.Context, match map[string]interface{}, changes map[string]interface{}) error

	// InsertMany inserts rows as new entries
	InsertMany(ctx context.Context, rows []*models.ActivityLogEntry) error

	// Close releases connections held by the repository
	Close() error
}

// OrderableColumns are the columns SelectAllOrderedBy accepts
var OrderableColumns = map[string]struct{}{
	models.ColumnID:         {},
	models.ColumnWeekNumber: {},
	models.ColumnDayOfWeek:  {},
	models.ColumnCreatedAt:  {},
}

// ValidateOrderField checks field against OrderableColumns
func ValidateOrderField(field string) error {
	if _, ok := OrderableColumns[field]; !ok {
		return InvalidQueryError("select", models.ActivityLogTable, "cannot order by "+field)
	}
	return nil
}

// ValidateMatch checks that every match key is an identity column
func ValidateMatch(match map[string]interface{}) error {
	if len(match) == 0 {
		return InvalidQueryError("update", models.ActivityLogTable, "match is required")
	}
	for k := range match {
		if k != models.ColumnWeekNumber && k != models.ColumnDayOfWeek && k != models.ColumnID {
			return InvalidQueryError("update", models.ActivityLogTable, "cannot match on "+k)
		}
	}
	return nil
}

// NumericDay converts a day_of_week value for stores with an integer column.
// Values that do not map onto 1..7 are an invalid query.
func NumericDay(op string, value interface{}) (int, error) {
	n, err := models.Day(value).Number()
	if err != nil {
		return 0, InvalidQueryError(op, models.ActivityLogTable, err.Error())
	}
	return n, nil
}

// NumericMatch returns a copy of match with day_of_week passed through NumericDay
func NumericMatch(match map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(match))
	for k, v := range match {
		if k == models.ColumnDayOfWeek {
			n, err := NumericDay("update", v)
			if err != nil {
				return nil, err
			}
			v = n
		}
		out[k] = v
	}
	return out, nil
}

// ValidateChanges checks that changes only touch well-formed, non-reserved columns
func ValidateChanges(changes map[string]interface{}) error {
	if len(changes) == 0 {
		return InvalidQueryError("update", models.ActivityLogTable, "no changes")
	}
	for k := range changes {
		if !models.IsValidColumnName(k) {
			return InvalidQueryError("update", models.ActivityLogTable, "invalid column "+k)
		}
		if _, reserved := models.ReservedColumns[k]; reserved {
			return InvalidQueryError("update", models.ActivityLogTable, "column "+k+" is reserved")
		}
	}
	return nil
}
