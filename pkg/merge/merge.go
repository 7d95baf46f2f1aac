// Package merge implements the first-non-null half of the field merge
// policy for values resolved in Go before a row is written. The SQL upsert
// statements apply the same policy to columns already in the database.
package merge

import "time"

// FirstString keeps the existing value unless it is nil or empty.
func FirstString(existing, incoming *string) *string {
	if existing != nil && *existing != "" {
		return existing
	}
	return incoming
}

// FirstTime keeps the existing value unless it is nil.
func FirstTime(existing, incoming *time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	return incoming
}
