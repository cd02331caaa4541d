package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ytakahashi/focus-session-server/internal/models"
	"github.com/ytakahashi/focus-session-server/internal/services"
	"github.com/ytakahashi/focus-session-server/internal/timer"
	"github.com/ytakahashi/focus-session-server/internal/todo"
)

// Buffer is the local staging slot sessions are finalized into.
type Buffer interface {
	Put(session models.Session) error
	IsEmpty() (bool, error)
}

// Reconciler drains the buffer into durable storage after login.
type Reconciler interface {
	Drain(ctx context.Context, uid string) error
}

// Engine owns the timer state machine and the todo ledger and serializes
// every event (ticks, user actions, the login callback) behind one
// mutex. Remote I/O never runs under the lock, so the tick cadence never
// waits on the network.
type Engine struct {
	mu         sync.Mutex
	machine    *timer.Machine
	ledger     *todo.Ledger
	buffer     Buffer
	notifier   services.Notifier
	reconciler Reconciler

	now func() time.Time
}

func New(buffer Buffer, notifier services.Notifier, reconciler Reconciler) *Engine {
	return &Engine{
		machine:    timer.New(),
		ledger:     todo.NewLedger(),
		buffer:     buffer,
		notifier:   notifier,
		reconciler: reconciler,
		now:        time.Now,
	}
}

// Run drives the countdown with one tick per second until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Snapshot returns the timer state for the presentation layer.
func (e *Engine) Snapshot() timer.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Snapshot()
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Start(e.now())
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Pause()
}

func (e *Engine) SetDuration(minutes int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.SetDuration(minutes)
}

func (e *Engine) AddMinutes(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.AddMinutes(delta)
}

// Tick advances the countdown by one second and applies any resulting
// effects.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	e.apply(e.machine.Tick(now), now)
}

// Reset abandons the current interval. A started work cycle is recorded
// with partial credit before the countdown is discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(e.machine.Reset(), e.now())
}

func (e *Engine) apply(effects []timer.Effect, now time.Time) {
	for _, effect := range effects {
		switch effect {
		case timer.EffectSessionCompleted, timer.EffectSessionAbandoned:
			e.finalize(now)
		case timer.EffectNotifyWorkDone:
			go e.notifier.Notify("Focus session complete. Time for a break!")
		case timer.EffectNotifyBreakDone:
			go e.notifier.Notify("Break is over. Ready for the next session?")
		}
	}
}

// finalize assembles an immutable session from the current cycle and
// the ledger snapshot and stages it in the buffer, overwriting any
// unsynced predecessor. A cycle that never started records nothing. A
// buffer failure degrades to "not saved" and leaves timer state intact.
func (e *Engine) finalize(now time.Time) {
	startedAt := e.machine.StartedAt()
	if startedAt == nil {
		return
	}
	e.machine.ClearCycle()

	start := models.NewTimestamp(*startedAt)
	end := models.NewTimestamp(now)
	session := models.Session{
		StartTime:     start,
		EndTime:       end,
		FocusDuration: int((end.Seconds - start.Seconds) / 60),
		Todos:         e.ledger.Snapshot(),
	}
	if err := e.buffer.Put(session); err != nil {
		log.Printf("Session not saved: %v", err)
	}
}

// HandleLogin reacts to a successful authentication event and drains the
// buffered session, if any, into the user's durable collection.
func (e *Engine) HandleLogin(ctx context.Context, uid string) error {
	return e.reconciler.Drain(ctx, uid)
}

// PendingSession reports whether an unsynced session is waiting for a
// login. Buffer read failures count as empty.
func (e *Engine) PendingSession() bool {
	empty, err := e.buffer.IsEmpty()
	if err != nil {
		log.Printf("Failed to check session buffer: %v", err)
		return false
	}
	return !empty
}

// Todo ledger operations, exposed to the presentation layer.

func (e *Engine) AddTodo(title string) (models.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Add(title, e.now())
}

func (e *Engine) RemoveTodo(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Remove(id)
}

func (e *Engine) EditTodoTitle(id, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.EditTitle(id, title)
}

func (e *Engine) ToggleTodo(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ToggleComplete(id, e.now())
}

func (e *Engine) Todos() []models.Todo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Snapshot()
}
