package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ytakahashi/focus-session-server/internal/models"
	"github.com/ytakahashi/focus-session-server/internal/services"
	"github.com/ytakahashi/focus-session-server/internal/timer"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type fakeSink struct {
	committed map[string][]models.Session
}

func (f *fakeSink) Append(_ context.Context, uid string, session models.Session) error {
	if f.committed == nil {
		f.committed = make(map[string][]models.Session)
	}
	f.committed[uid] = append(f.committed[uid], session)
	return nil
}

// fakeClock advances one second per Tick, mirroring the real cadence.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T) (*Engine, *services.SessionBuffer, *fakeSink, *recordingNotifier, *fakeClock) {
	t.Helper()
	buf, err := services.NewSessionBuffer(filepath.Join(t.TempDir(), "buffer.db"))
	if err != nil {
		t.Fatalf("NewSessionBuffer: %v", err)
	}
	t.Cleanup(func() { _ = buf.Close() })

	sink := &fakeSink{}
	notifier := &recordingNotifier{}
	e := New(buf, notifier, services.NewReconciler(buf, sink))

	clock := &fakeClock{t: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	e.now = clock.now
	return e, buf, sink, notifier, clock
}

func runWork(e *Engine, clock *fakeClock, seconds int) {
	for i := 0; i < seconds; i++ {
		clock.advance(time.Second)
		e.Tick()
	}
}

func TestCompletedSessionIsBuffered(t *testing.T) {
	e, buf, _, notifier, clock := newTestEngine(t)

	e.SetDuration(25)
	if _, err := e.AddTodo("write report"); err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	second, err := e.AddTodo("review PR")
	if err != nil {
		t.Fatalf("AddTodo: %v", err)
	}

	start := clock.now()
	e.Start()
	runWork(e, clock, 10*60)
	if err := e.ToggleTodo(second.ID); err != nil {
		t.Fatalf("ToggleTodo: %v", err)
	}
	runWork(e, clock, 15*60)

	s := e.Snapshot()
	if s.Mode != timer.ModeBreak || s.SecondsLeft != timer.BreakSeconds {
		t.Fatalf("snapshot after work completion: %+v", s)
	}

	session, ok, err := buf.Take()
	if err != nil || !ok {
		t.Fatalf("Take: ok=%v err=%v", ok, err)
	}
	if session.FocusDuration != 25 {
		t.Fatalf("FocusDuration=%d, want 25", session.FocusDuration)
	}
	if session.StartTime.Seconds != start.Unix() {
		t.Fatalf("StartTime.Seconds=%d, want %d", session.StartTime.Seconds, start.Unix())
	}
	if len(session.Todos) != 2 {
		t.Fatalf("Todos len=%d, want 2", len(session.Todos))
	}
	var doneCount int
	for _, todo := range session.Todos {
		if todo.DoneTime != nil {
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Fatalf("doneCount=%d, want 1", doneCount)
	}

	waitFor(t, func() bool { return notifier.count() == 1 })
}

func TestAbandonedSessionGetsPartialCredit(t *testing.T) {
	e, buf, _, _, clock := newTestEngine(t)

	e.SetDuration(25)
	e.Start()
	runWork(e, clock, 10*60)
	e.Reset()

	s := e.Snapshot()
	if !s.IsPaused || s.SecondsLeft != 25*60 {
		t.Fatalf("snapshot after reset: %+v", s)
	}

	session, ok, err := buf.Take()
	if err != nil || !ok {
		t.Fatalf("Take: ok=%v err=%v", ok, err)
	}
	if session.FocusDuration != 10 {
		t.Fatalf("FocusDuration=%d, want 10", session.FocusDuration)
	}
}

func TestResetWithoutStartRecordsNothing(t *testing.T) {
	e, buf, _, _, _ := newTestEngine(t)

	e.Reset()

	if _, ok, _ := buf.Take(); ok {
		t.Fatal("no session should be recorded before the first start")
	}
}

func TestBreakDoesNotCountTowardFocus(t *testing.T) {
	e, buf, _, _, clock := newTestEngine(t)

	e.SetDuration(1)
	e.Start()
	runWork(e, clock, 60) // work completes, break starts running
	runWork(e, clock, 60) // one minute into the break

	session, ok, err := buf.Take()
	if err != nil || !ok {
		t.Fatalf("Take: ok=%v err=%v", ok, err)
	}
	if session.FocusDuration != 1 {
		t.Fatalf("FocusDuration=%d, want 1 (break time excluded)", session.FocusDuration)
	}
}

func TestLoginReconciliation(t *testing.T) {
	e, buf, sink, _, clock := newTestEngine(t)

	e.SetDuration(25)
	e.Start()
	runWork(e, clock, 25*60)

	if !e.PendingSession() {
		t.Fatal("a finished session should be pending before login")
	}

	if err := e.HandleLogin(context.Background(), "uid-1"); err != nil {
		t.Fatalf("HandleLogin: %v", err)
	}

	if got := len(sink.committed["uid-1"]); got != 1 {
		t.Fatalf("committed %d sessions, want 1", got)
	}
	if empty, _ := buf.IsEmpty(); !empty {
		t.Fatal("buffer should be empty after login")
	}
	if e.PendingSession() {
		t.Fatal("nothing should be pending after login")
	}
}

type failingBuffer struct{}

func (failingBuffer) Put(models.Session) error { return fmt.Errorf("disk full") }
func (failingBuffer) IsEmpty() (bool, error)   { return true, nil }

func TestBufferFailureLeavesTimerIntact(t *testing.T) {
	e := New(failingBuffer{}, services.NopNotifier{}, nil)
	clock := &fakeClock{t: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)}
	e.now = clock.now

	e.SetDuration(1)
	e.Start()
	runWork(e, clock, 60)

	s := e.Snapshot()
	if s.Mode != timer.ModeBreak || s.SecondsLeft != timer.BreakSeconds {
		t.Fatalf("timer state corrupted by buffer failure: %+v", s)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
