package store

import (
	"database/sql"
	"time"
)

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *int64 {
	if !ns.Valid {
		return nil
	}
	v := ns.Int64
	return &v
}

func toUnixMilli(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromUnixMilli(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
