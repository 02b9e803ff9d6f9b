package repository

import "time"

// Fixed-width fraction keeps the TEXT column lexicographically
// sortable; RFC3339Nano would trim trailing zeros and misorder
// values inside the same second.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func rfc3339(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}
