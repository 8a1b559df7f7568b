package models

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Column names are plain snake_case identifiers
var columnNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ColumnAllowList is the set of columns a client may change through updateDay
type ColumnAllowList struct {
	columns map[string]struct{}
}

// NewColumnAllowList builds an allow-list. Reserved and malformed names are rejected.
func NewColumnAllowList(columns []string) (*ColumnAllowList, error) {
	list := &ColumnAllowList{columns: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !IsValidColumnName(c) {
			return nil, fmt.Errorf("invalid column name %q", c)
		}
		if _, reserved := ReservedColumns[c]; reserved {
			return nil, fmt.Errorf("column %q is reserved and cannot be updatable", c)
		}
		list.columns[c] = struct{}{}
	}
	if len(list.columns) == 0 {
		return nil, fmt.Errorf("column allow-list cannot be empty")
	}
	return list, nil
}

// DefaultColumnAllowList returns the allow-list built from DefaultUpdatableColumns
func DefaultColumnAllowList() *ColumnAllowList {
	list, err := NewColumnAllowList(DefaultUpdatableColumns)
	if err != nil {
		panic(err)
	}
	return list
}

// Allows reports whether column may be updated
func (l *ColumnAllowList) Allows(column string) bool {
	_, ok := l.columns[column]
	return ok
}

// Columns returns the allowed column names, sorted
func (l *ColumnAllowList) Columns() []string {
	out := make([]string, 0, len(l.columns))
	for c := range l.columns {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Validate returns a ValidationError when column is not updatable
func (l *ColumnAllowList) Validate(column string) error {
	if err := ValidateRequired(column, "column"); err != nil {
		return err
	}
	if !l.Allows(column) {
		return &ValidationError{
			Field:   "column",
			Message: fmt.Sprintf("column %s is not updatable", column),
			Value:   column,
		}
	}
	return nil
}

// IsValidColumnName checks that a name is safe to use as a column identifier
func IsValidColumnName(name string) bool {
	return columnNameRegex.MatchString(name)
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " is required",
			Value:   value,
		}
	}
	return nil
}

// MissingField builds the presence-check error for fieldName
func MissingField(fieldName string) error {
	return &ValidationError{
		Field:   fieldName,
		Message: fieldName + " is required",
	}
}
