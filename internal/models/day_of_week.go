package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DayOfWeek holds a day_of_week value exactly as the caller or the store sent
// it, number or string. Stores with an integer column read it through Number.
type DayOfWeek struct {
	value interface{}
}

var weekdayNames = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
	"sunday":    7,
}

// Day wraps a raw day_of_week value
func Day(value interface{}) DayOfWeek {
	switch v := value.(type) {
	case DayOfWeek:
		return v
	case *DayOfWeek:
		if v == nil {
			return DayOfWeek{}
		}
		return *v
	}
	return DayOfWeek{value: value}
}

// Value returns the wrapped value unchanged
func (d DayOfWeek) Value() interface{} {
	return d.value
}

// IsZero reports whether no value was set
func (d DayOfWeek) IsZero() bool {
	return d.value == nil
}

func (d DayOfWeek) String() string {
	if d.value == nil {
		return ""
	}
	return fmt.Sprint(d.value)
}

// Number maps the value onto ISO numbering (Monday=1 .. Sunday=7).
// Integers and numeric strings must lie in 1..7.
func (d DayOfWeek) Number() (int, error) {
	var n int64
	switch v := d.value.(type) {
	case nil:
		return 0, fmt.Errorf("empty day_of_week")
	case string:
		return ParseDayOfWeek(v)
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("invalid day_of_week %v: must be an integer", v)
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid day_of_week %s: must be an integer", v)
		}
		n = i
	default:
		return 0, fmt.Errorf("invalid day_of_week %v", v)
	}
	return dayInRange(n)
}

// Equal compares two days by ISO number when both have one, otherwise by
// their text form
func (d DayOfWeek) Equal(other DayOfWeek) bool {
	a, errA := d.Number()
	b, errB := other.Number()
	if errA == nil && errB == nil {
		return a == b
	}
	return d.String() == other.String()
}

// ParseDayOfWeek parses a weekday number or a full/three-letter weekday name
func ParseDayOfWeek(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty day_of_week")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return dayInRange(n)
	}

	lower := strings.ToLower(s)
	if d, ok := weekdayNames[lower]; ok {
		return d, nil
	}
	for name, d := range weekdayNames {
		if len(lower) == 3 && strings.HasPrefix(name, lower) {
			return d, nil
		}
	}

	return 0, fmt.Errorf("invalid day_of_week %q", s)
}

func dayInRange(n int64) (int, error) {
	if n < 1 || n > 7 {
		return 0, fmt.Errorf("day_of_week %d is out of range 1..7", n)
	}
	return int(n), nil
}

// MarshalJSON renders the value as it was received
func (d DayOfWeek) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.value)
}

// UnmarshalJSON accepts a JSON number or string. Numbers are kept as json.Number.
func (d *DayOfWeek) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("invalid day_of_week: %w", err)
	}
	switch value.(type) {
	case nil, string, json.Number:
		d.value = value
		return nil
	default:
		return fmt.Errorf("invalid day_of_week: must be a number or a string")
	}
}
