// Package timestamp provides the millisecond timestamp handling used when
// backend stamps are republished to clients.
//
// Backend services report instants as a (seconds, nanoseconds) pair, the
// google.protobuf.Timestamp layout. Clients receive instants at millisecond
// resolution, so every conversion here truncates sub-millisecond precision.
//
// Zero Value Semantics:
//   - ToUnixMs and FromUnixMs treat 0 as "not set"
//   - FromStamp never does: a backend stamp of (0, 0) is the Unix epoch
//
// Usage Examples:
//
//	// Backend stamp to milliseconds
//	ms := timestamp.FromSecondsNanos(10, 500_000_000) // 10500
//
//	// Backend stamp to time.Time (UTC, millisecond resolution)
//	t := timestamp.FromStamp(stamp.Seconds, stamp.Nanos)
//
//	// Format for display
//	display := timestamp.Format(t)
package timestamp

import (
	"time"
)

// DisplayLayout is RFC 3339 with exactly three fractional digits.
const DisplayLayout = "2006-01-02T15:04:05.000Z07:00"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns zero time if timestamp is 0.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FromSecondsNanos converts a (seconds, nanoseconds) stamp to Unix
// milliseconds: seconds*1000 + nanos/1_000_000, truncating.
func FromSecondsNanos(seconds int64, nanos int32) int64 {
	return seconds*1000 + int64(nanos)/1_000_000
}

// FromStamp converts a (seconds, nanoseconds) stamp to a UTC time.Time
// truncated to millisecond resolution.
func FromStamp(seconds int64, nanos int32) time.Time {
	return time.UnixMilli(FromSecondsNanos(seconds, nanos)).UTC()
}

// Truncate drops sub-millisecond precision and normalizes to UTC.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Millisecond).UTC()
}

// Format renders t in UTC using DisplayLayout.
func Format(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}
