package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActivityLogEntry is one row of the activity log, identified by
// (WeekNumber, DayOfWeek). DayOfWeek and every other column are kept as
// received, so the entry round-trips whatever schema the store happens to have.
type ActivityLogEntry struct {
	WeekNumber int
	DayOfWeek  DayOfWeek
	Fields     map[string]interface{}

	hasWeek bool
	hasDay  bool
}

// NewActivityLogEntry creates an entry with the given identity. day may be
// a number, a string or a DayOfWeek.
func NewActivityLogEntry(weekNumber int, day interface{}) *ActivityLogEntry {
	return &ActivityLogEntry{
		WeekNumber: weekNumber,
		DayOfWeek:  Day(day),
		Fields:     make(map[string]interface{}),
		hasWeek:    true,
		hasDay:     true,
	}
}

// HasWeekNumber reports whether week_number was present when the entry was decoded
func (e *ActivityLogEntry) HasWeekNumber() bool {
	return e.hasWeek
}

// HasDayOfWeek reports whether a non-null day_of_week was present when the
// entry was decoded
func (e *ActivityLogEntry) HasDayOfWeek() bool {
	return e.hasDay && !e.DayOfWeek.IsZero()
}

// Set stores a column value. Identity columns are routed to their typed fields.
func (e *ActivityLogEntry) Set(column string, value interface{}) error {
	switch column {
	case ColumnWeekNumber:
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("invalid week_number: %w", err)
		}
		e.WeekNumber = n
		e.hasWeek = true
	case ColumnDayOfWeek:
		e.DayOfWeek = Day(value)
		e.hasDay = true
	default:
		if e.Fields == nil {
			e.Fields = make(map[string]interface{})
		}
		e.Fields[column] = value
	}
	return nil
}

// WithWeek returns a copy of the entry carrying the given week number.
// Fields are copied shallowly; values are never mutated by this package.
func (e *ActivityLogEntry) WithWeek(weekNumber int) *ActivityLogEntry {
	clone := &ActivityLogEntry{
		WeekNumber: weekNumber,
		DayOfWeek:  e.DayOfWeek,
		Fields:     make(map[string]interface{}, len(e.Fields)),
		hasWeek:    true,
		hasDay:     e.hasDay,
	}
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return clone
}

// ToMap flattens the entry into a single column map
func (e *ActivityLogEntry) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}
	if e.hasWeek {
		out[ColumnWeekNumber] = e.WeekNumber
	}
	if e.hasDay {
		out[ColumnDayOfWeek] = e.DayOfWeek.Value()
	}
	return out
}

// MarshalJSON renders the entry as a flat JSON object
func (e *ActivityLogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// UnmarshalJSON decodes a flat JSON object. Numbers in Fields are kept as json.Number.
func (e *ActivityLogEntry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("activity log entry must be a JSON object")
	}

	entry, err := EntryFromMap(raw)
	if err != nil {
		return err
	}
	*e = *entry
	return nil
}

// EntryFromMap builds an entry from a decoded column map
func EntryFromMap(row map[string]interface{}) (*ActivityLogEntry, error) {
	e := &ActivityLogEntry{Fields: make(map[string]interface{}, len(row))}
	for k, v := range row {
		if (k == ColumnWeekNumber || k == ColumnDayOfWeek) && v == nil {
			continue
		}
		if err := e.Set(k, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// EntryFromColumns builds an entry from undecoded column values. Columns
// named in skip are dropped before any value is parsed.
func EntryFromColumns(columns map[string]json.RawMessage, skip ...string) (*ActivityLogEntry, error) {
	row := make(map[string]interface{}, len(columns))
	for k, raw := range columns {
		if contains(skip, k) {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", k, err)
		}
		row[k] = v
	}
	return EntryFromMap(row)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", v)
		}
		return int(n), nil
	case string:
		i, err := json.Number(v).Int64()
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
