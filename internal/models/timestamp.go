package models

import (
	"time"
)

// Timestamp is a seconds/nanoseconds pair matching the Firestore wire shape.
// Every timestamp persisted to the local buffer or Firestore carries
// Nanoseconds == 0 so both tiers stay bit-compatible.
type Timestamp struct {
	Seconds     int64 `firestore:"seconds" json:"seconds"`
	Nanoseconds int32 `firestore:"nanoseconds" json:"nanoseconds"`
}

// NewTimestamp truncates t to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix()}
}

// Normalized returns a copy with sub-second precision discarded.
func (ts Timestamp) Normalized() Timestamp {
	ts.Nanoseconds = 0
	return ts
}

// Time converts back to a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds))
}
