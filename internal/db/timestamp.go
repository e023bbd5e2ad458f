package db

import (
	"database/sql"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 value as written by this package or by
// older clients. Values without a zone are taken as UTC. Empty or malformed
// input yields the zero time and false.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// storageLayout is fixed width so that text order matches time order.
const storageLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp is the storage form of t; the zero time is stored as NULL.
func FormatTimestamp(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(storageLayout), Valid: true}
}

func nullTime(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, _ := ParseTimestamp(ns.String)
	return t
}
