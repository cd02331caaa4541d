package todo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ytakahashi/focus-session-server/internal/models"
)

// Ledger is the ordered todo list bound to the active focus session.
// Not goroutine-safe; the engine serializes access.
type Ledger struct {
	todos []models.Todo
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add appends a todo and returns it. Blank titles are rejected.
func (l *Ledger) Add(title string, now time.Time) (models.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Todo{}, fmt.Errorf("todo title is empty")
	}
	t := models.Todo{
		ID:        uuid.New().String(),
		Title:     title,
		StartTime: models.NewTimestamp(now),
	}
	l.todos = append(l.todos, t)
	return t, nil
}

// Remove deletes the todo with the given id.
func (l *Ledger) Remove(id string) error {
	for i, t := range l.todos {
		if t.ID == id {
			l.todos = append(l.todos[:i], l.todos[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no todo found with id: %s", id)
}

// EditTitle replaces the title of the todo with the given id.
func (l *Ledger) EditTitle(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("todo title is empty")
	}
	for i := range l.todos {
		if l.todos[i].ID == id {
			l.todos[i].Title = title
			return nil
		}
	}
	return fmt.Errorf("no todo found with id: %s", id)
}

// ToggleComplete flips the completed flag. Completing a todo stamps its
// DoneTime; toggling back to incomplete clears it.
func (l *Ledger) ToggleComplete(id string, now time.Time) error {
	for i := range l.todos {
		if l.todos[i].ID != id {
			continue
		}
		if l.todos[i].Completed {
			l.todos[i].Completed = false
			l.todos[i].DoneTime = nil
		} else {
			l.todos[i].Completed = true
			done := models.NewTimestamp(now)
			l.todos[i].DoneTime = &done
		}
		return nil
	}
	return fmt.Errorf("no todo found with id: %s", id)
}

// Snapshot returns a by-value copy of the ledger. Session records hold
// these copies, so later ledger edits never reach a finalized session.
func (l *Ledger) Snapshot() []models.Todo {
	out := make([]models.Todo, len(l.todos))
	for i, t := range l.todos {
		if t.DoneTime != nil {
			done := *t.DoneTime
			t.DoneTime = &done
		}
		out[i] = t
	}
	return out
}

// Clear empties the ledger for the next session.
func (l *Ledger) Clear() {
	l.todos = nil
}

// Len reports the number of todos on the ledger.
func (l *Ledger) Len() int {
	return len(l.todos)
}
