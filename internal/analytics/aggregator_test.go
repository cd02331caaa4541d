package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/ytakahashi/focus-session-server/internal/models"
)

func sessionAt(t time.Time, minutes int) models.Session {
	return models.Session{
		StartTime:     models.NewTimestamp(t),
		EndTime:       models.NewTimestamp(t.Add(time.Duration(minutes) * time.Minute)),
		FocusDuration: minutes,
	}
}

func TestWindowFor(t *testing.T) {
	// 2024-10-02 is a Wednesday
	cursor := time.Date(2024, 10, 2, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		bucket    Bucket
		wantStart time.Time
		wantLabel string
	}{
		{BucketDay, time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC), "2024-10-02"},
		{BucketWeek, time.Date(2024, 9, 29, 0, 0, 0, 0, time.UTC), "2024-09-29 - 2024-10-05"},
		{BucketMonth, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), "2024-10"},
	}
	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			w := WindowFor(cursor, tt.bucket)
			if !w.Start.Equal(tt.wantStart) {
				t.Fatalf("Start=%v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Before(nextStart(tt.bucket, tt.wantStart)) {
				t.Fatalf("End=%v not before next span", w.End)
			}
			if got := w.Label(); got != tt.wantLabel {
				t.Fatalf("Label=%q, want %q", got, tt.wantLabel)
			}
		})
	}
}

func nextStart(b Bucket, start time.Time) time.Time {
	switch b {
	case BucketWeek:
		return start.AddDate(0, 0, 7)
	case BucketMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func TestFilterByWindowIsBoundaryExclusive(t *testing.T) {
	w := WindowFor(time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC), BucketDay)

	inside := sessionAt(time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC), 25)
	atStart := sessionAt(w.Start, 25)
	dayBefore := sessionAt(time.Date(2024, 10, 1, 23, 59, 0, 0, time.UTC), 25)

	got := FilterByWindow([]models.Session{inside, atStart, dayBefore}, w)
	if len(got) != 1 || got[0].StartTime != inside.StartTime {
		t.Fatalf("filtered=%d sessions, want only the inside one: %+v", len(got), got)
	}

	// a session starting exactly at window.End is excluded too
	atEnd := models.Session{StartTime: models.Timestamp{Seconds: w.End.Unix(), Nanoseconds: int32(w.End.Nanosecond())}, FocusDuration: 25}
	if got := FilterByWindow([]models.Session{atEnd}, w); len(got) != 0 {
		t.Fatalf("session at window.End should be excluded, got %+v", got)
	}
}

func TestRolling30DayTotal(t *testing.T) {
	now := time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		sessionAt(now.AddDate(0, 0, -1), 25),
		sessionAt(now.AddDate(0, 0, -29), 30),
		sessionAt(now.AddDate(0, 0, -31), 60), // outside the window
	}
	if got := Rolling30DayTotal(sessions, now); got != 55 {
		t.Fatalf("Rolling30DayTotal=%d, want 55", got)
	}
}

func TestToSeriesIsRestartable(t *testing.T) {
	sessions := []models.Session{
		sessionAt(time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC), 25),
		sessionAt(time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC), 50),
	}
	seq := ToSeries(sessions)

	for range 2 {
		var dates []string
		var minutes []int
		for d, m := range seq {
			dates = append(dates, d)
			minutes = append(minutes, m)
		}
		if len(dates) != 2 || dates[0] != "2024-10-02" || dates[1] != "2024-10-01" {
			t.Fatalf("dates=%v", dates)
		}
		if minutes[0] != 25 || minutes[1] != 50 {
			t.Fatalf("minutes=%v", minutes)
		}
	}
}

type fakeSource struct {
	sessions []models.Session
}

func (f *fakeSource) ListAll(_ context.Context, _ string) ([]models.Session, error) {
	out := make([]models.Session, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func TestMonthlyReportAndCursorNavigation(t *testing.T) {
	october := sessionAt(time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC), 25)
	september := sessionAt(time.Date(2024, 9, 15, 9, 0, 0, 0, time.UTC), 40)
	source := &fakeSource{sessions: []models.Session{september, october}}
	agg := NewAggregator(source)

	now := time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC)
	cursor := Cursor{Date: now, Bucket: BucketMonth}

	report, err := agg.Report(context.Background(), "uid-1", cursor, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.TotalFocus != 25 {
		t.Fatalf("TotalFocus=%d, want 25", report.TotalFocus)
	}
	if len(report.Series) != 1 || report.Series[0].Date != "2024-10-02" {
		t.Fatalf("Series=%+v", report.Series)
	}
	if report.Last30Days != 65 {
		t.Fatalf("Last30Days=%d, want 65", report.Last30Days)
	}

	prev, err := agg.Report(context.Background(), "uid-1", cursor.Prev(), now)
	if err != nil {
		t.Fatalf("Report prev: %v", err)
	}
	if prev.WindowLabel != "2024-09" {
		t.Fatalf("WindowLabel=%q, want 2024-09", prev.WindowLabel)
	}
	if prev.TotalFocus != 40 {
		t.Fatalf("prev TotalFocus=%d, want 40", prev.TotalFocus)
	}
}

func TestSortSessionsMostRecentFirstStable(t *testing.T) {
	a := sessionAt(time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC), 10)
	b := sessionAt(time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC), 20)
	c := sessionAt(time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC), 30) // same start as b

	sessions := []models.Session{a, b, c}
	SortSessions(sessions)

	if sessions[0].FocusDuration != 20 || sessions[1].FocusDuration != 30 || sessions[2].FocusDuration != 10 {
		t.Fatalf("unexpected order: %+v", sessions)
	}
}
