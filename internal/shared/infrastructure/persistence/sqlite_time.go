package persistence

import (
	"database/sql"
	"time"
)

// SQLiteTimeLayout is the fixed-width UTC layout timestamps are stored in,
// so that TEXT comparison orders them chronologically.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatSQLiteTime formats t for a SQLite TEXT column.
func FormatSQLiteTime(t time.Time) string {
	return t.UTC().Format(SQLiteTimeLayout)
}

// FormatSQLiteTimePtr formats an optional timestamp; nil becomes NULL.
func FormatSQLiteTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatSQLiteTime(*t), Valid: true}
}

// ParseSQLiteTime parses a stored timestamp, accepting any RFC 3339 form.
func ParseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(SQLiteTimeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

// ParseSQLiteTimePtr parses an optional timestamp; NULL becomes nil.
func ParseSQLiteTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := ParseSQLiteTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
