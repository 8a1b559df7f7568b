// Package mock provides an in-memory ActivityLogRepository for tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
)

// Calls counts the store operations a test made
type Calls struct {
	Select int
	Update int
	Insert int
}

// ActivityLogRepository is an in-memory implementation of repositories.ActivityLogRepository
type ActivityLogRepository struct {
	mu      sync.RWMutex
	rows    []*models.ActivityLogEntry
	nextID  int64
	calls   Calls
	failErr error
}

// NewActivityLogRepository creates a repository seeded with rows
func NewActivityLogRepository(rows ...*models.ActivityLogEntry) *ActivityLogRepository {
	m := &ActivityLogRepository{}
	for _, row := range rows {
		m.add(row)
	}
	return m
}

// FailWith makes every following operation return err
func (m *ActivityLogRepository) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Calls returns the operation counters
func (m *ActivityLogRepository) Calls() Calls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Rows returns copies of the stored rows in insertion order
func (m *ActivityLogRepository) Rows() []*models.ActivityLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ActivityLogEntry, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row.WithWeek(row.WeekNumber))
	}
	return out
}

// SelectAllOrderedBy implements repositories.ActivityLogRepository
func (m *ActivityLogRepository) SelectAllOrderedBy(ctx context.Context, field string, ascending bool) ([]*models.ActivityLogEntry, error) {
	m.mu.Lock()
	m.calls.Select++
	failErr := m.failErr
	m.mu.Unlock()

	if err := repositories.ValidateOrderField(field); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}

	rows := m.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := orderKey(rows[i], field), orderKey(rows[j], field)
		if ascending {
			return a < b
		}
		return a > b
	})
	return rows, nil
}

// UpdateWhere implements repositories.ActivityLogRepository
func (m *ActivityLogRepository) UpdateWhere(ctx context.Context, match map[string]interface{}, changes map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Update++

	if err := repositories.ValidateMatch(match); err != nil {
		return err
	}
	if err := repositories.ValidateChanges(changes); err != nil {
		return err
	}
	if m.failErr != nil {
		return m.failErr
	}

	for _, row := range m.rows {
		if !matches(row, match) {
			continue
		}
		for k, v := range changes {
			row.Fields[k] = v
		}
	}
	return nil
}

// InsertMany implements repositories.ActivityLogRepository
func (m *ActivityLogRepository) InsertMany(ctx context.Context, rows []*models.ActivityLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Insert++

	if len(rows) == 0 {
		return repositories.InvalidQueryError("insert", models.ActivityLogTable, "no rows")
	}
	if m.failErr != nil {
		return m.failErr
	}

	for _, row := range rows {
		m.add(row)
	}
	return nil
}

// Close implements repositories.ActivityLogRepository
func (m *ActivityLogRepository) Close() error {
	return nil
}

func (m *ActivityLogRepository) add(row *models.ActivityLogEntry) {
	m.nextID++
	stored := row.WithWeek(row.WeekNumber)
	stored.Fields[models.ColumnID] = m.nextID
	m.rows = append(m.rows, stored)
}

func orderKey(row *models.ActivityLogEntry, field string) int64 {
	switch field {
	case models.ColumnWeekNumber:
		return int64(row.WeekNumber)
	case models.ColumnDayOfWeek:
		n, _ := row.DayOfWeek.Number()
		return int64(n)
	default:
		id, _ := row.Fields[models.ColumnID].(int64)
		return id
	}
}

// matches compares values by their text form, like a filter sent to the
// hosted store
func matches(row *models.ActivityLogEntry, match map[string]interface{}) bool {
	for k, want := range match {
		var got interface{}
		switch k {
		case models.ColumnWeekNumber:
			got = row.WeekNumber
		case models.ColumnDayOfWeek:
			got = row.DayOfWeek
		default:
			got = row.Fields[k]
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
