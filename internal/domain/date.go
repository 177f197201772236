package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

var dateType = reflect.TypeOf(Date{})

// Date is a timestamp that accepts the ISO-8601 shapes the mobile client
// sends: a bare calendar date or a full RFC 3339 timestamp.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: dateType}
	}
	t, err := ParseDate(s)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + s, Type: dateType}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// IsDateOnly reports whether s is a bare calendar date (YYYY-MM-DD).
func IsDateOnly(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// ParseDate parses s with the first matching layout. Values without a zone
// are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
