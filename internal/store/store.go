package store

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by writes that target a record that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrProjectNotFound is returned when an inspection references a missing obra.
	ErrProjectNotFound = errors.New("referenced obra not found")
)

// Timestamps are stored as Unix milliseconds in UTC.
func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
