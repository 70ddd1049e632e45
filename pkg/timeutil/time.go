package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() for stored timestamps
func Now() time.Time {
	return time.Now().UTC()
}

// FormatRFC3339 formats t in UTC. The zero time formats as "".
func FormatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
