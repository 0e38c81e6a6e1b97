package utils

import "time"

// TimestampSeconds converts t to fractional seconds since the Unix epoch,
// the representation frame metadata carries on the wire.
func TimestampSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromTimestampSeconds converts fractional epoch seconds back to a time.
func FromTimestampSeconds(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second)))
}
