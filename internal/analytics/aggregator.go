package analytics

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/ytakahashi/focus-session-server/internal/models"
)

// SessionSource lists a user's committed sessions, most-recent-first.
type SessionSource interface {
	ListAll(ctx context.Context, uid string) ([]models.Session, error)
}

// SortSessions orders sessions most-recent-first by start time. Equal
// start times keep their insertion order.
func SortSessions(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Seconds > sessions[j].StartTime.Seconds
	})
}

// FilterByWindow retains sessions whose start time falls strictly inside
// the window. Both boundaries are exclusive: a session starting exactly
// at window.Start or window.End is dropped.
func FilterByWindow(sessions []models.Session, w Window) []models.Session {
	var out []models.Session
	for _, s := range sessions {
		t := s.StartTime.Time()
		if t.After(w.Start) && t.Before(w.End) {
			out = append(out, s)
		}
	}
	return out
}

// TotalFocusDuration sums focus minutes across sessions.
func TotalFocusDuration(sessions []models.Session) int {
	total := 0
	for _, s := range sessions {
		total += s.FocusDuration
	}
	return total
}

// Rolling30DayTotal sums focus minutes for sessions started within the
// last 30 days of now, regardless of the view cursor.
func Rolling30DayTotal(sessions []models.Session, now time.Time) int {
	cutoff := now.AddDate(0, 0, -30)
	total := 0
	for _, s := range sessions {
		if !s.StartTime.Time().Before(cutoff) {
			total += s.FocusDuration
		}
	}
	return total
}

// ToSeries yields (dateLabel, focusDuration) pairs for chart rendering,
// one per session, preserving the input order. The sequence is
// restartable: each range re-walks the slice.
func ToSeries(sessions []models.Session) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, s := range sessions {
			if !yield(s.StartTime.Time().Format("2006-01-02"), s.FocusDuration) {
				return
			}
		}
	}
}

// SeriesPoint is one chart bar.
type SeriesPoint struct {
	Date         string `json:"date"`
	FocusMinutes int    `json:"focusMinutes"`
}

// SessionTodos is the completed-todos view shown under the chart.
type SessionTodos struct {
	Date   string   `json:"date"`
	Titles []string `json:"titles"`
}

// Report is one chart-ready analytics view.
type Report struct {
	Bucket        Bucket         `json:"bucket"`
	WindowLabel   string         `json:"windowLabel"`
	WindowStart   string         `json:"windowStart"`
	WindowEnd     string         `json:"windowEnd"`
	TotalFocus    int            `json:"totalFocusDuration"`
	Last30Days    int            `json:"last30DaysFocusDuration"`
	Series        []SeriesPoint  `json:"series"`
	SessionsTodos []SessionTodos `json:"completedTodos"`
}

// Aggregator turns a user's session history into analytics reports.
type Aggregator struct {
	source SessionSource
}

func NewAggregator(source SessionSource) *Aggregator {
	return &Aggregator{source: source}
}

// Report fetches the user's sessions and builds the view for the cursor.
// The rolling 30-day total is always relative to now, recomputed on
// every call.
func (a *Aggregator) Report(ctx context.Context, uid string, cursor Cursor, now time.Time) (Report, error) {
	sessions, err := a.source.ListAll(ctx, uid)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	SortSessions(sessions)

	w := cursor.Window()
	filtered := FilterByWindow(sessions, w)

	report := Report{
		Bucket:      w.Bucket,
		WindowLabel: w.Label(),
		WindowStart: w.Start.Format(time.RFC3339),
		WindowEnd:   w.End.Format(time.RFC3339),
		TotalFocus:  TotalFocusDuration(filtered),
		Last30Days:  Rolling30DayTotal(sessions, now),
		Series:      []SeriesPoint{},
	}

	for date, minutes := range ToSeries(filtered) {
		report.Series = append(report.Series, SeriesPoint{Date: date, FocusMinutes: minutes})
	}
	for _, s := range filtered {
		st := SessionTodos{Date: s.StartTime.Time().Format("2006-01-02")}
		for _, t := range s.Todos {
			st.Titles = append(st.Titles, t.Title)
		}
		report.SessionsTodos = append(report.SessionsTodos, st)
	}
	return report, nil
}
