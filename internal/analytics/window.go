package analytics

import (
	"fmt"
	"time"
)

// Bucket is the aggregation granularity.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket validates a bucket name from the query string.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketDay, BucketWeek, BucketMonth:
		return Bucket(s), nil
	}
	return "", fmt.Errorf("unknown bucket: %q", s)
}

// Window is one navigable day, week or month span. Filtering is
// boundary-exclusive on both ends, so End sits one nanosecond before the
// start of the next span.
type Window struct {
	Start  time.Time
	End    time.Time
	Bucket Bucket
}

// WindowFor computes the window holding the cursor date. Weeks start on
// Sunday.
func WindowFor(cursor time.Time, bucket Bucket) Window {
	y, m, d := cursor.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, cursor.Location())

	var start, next time.Time
	switch bucket {
	case BucketWeek:
		start = day.AddDate(0, 0, -int(day.Weekday()))
		next = start.AddDate(0, 0, 7)
	case BucketMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, cursor.Location())
		next = start.AddDate(0, 1, 0)
	default:
		start = day
		next = start.AddDate(0, 0, 1)
	}
	return Window{Start: start, End: next.Add(-time.Nanosecond), Bucket: bucket}
}

// Label renders the window the way the analytics page titles it.
func (w Window) Label() string {
	switch w.Bucket {
	case BucketWeek:
		return fmt.Sprintf("%s - %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	case BucketMonth:
		return w.Start.Format("2006-01")
	default:
		return w.Start.Format("2006-01-02")
	}
}

// Cursor is the navigable position of the analytics view.
type Cursor struct {
	Date   time.Time
	Bucket Bucket
}

// Prev shifts the cursor back by one unit of the active bucket.
func (c Cursor) Prev() Cursor {
	return c.shift(-1)
}

// Next shifts the cursor forward by one unit of the active bucket.
func (c Cursor) Next() Cursor {
	return c.shift(1)
}

func (c Cursor) shift(n int) Cursor {
	switch c.Bucket {
	case BucketWeek:
		c.Date = c.Date.AddDate(0, 0, 7*n)
	case BucketMonth:
		c.Date = c.Date.AddDate(0, n, 0)
	default:
		c.Date = c.Date.AddDate(0, 0, n)
	}
	return c
}

// Window computes the window for the cursor's current position.
func (c Cursor) Window() Window {
	return WindowFor(c.Date, c.Bucket)
}
