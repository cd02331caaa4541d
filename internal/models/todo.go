package models

// Todo represents a todo item tied to the active focus session.
// DoneTime is set when Completed flips true and cleared when the todo
// is toggled back to incomplete.
type Todo struct {
	ID        string     `firestore:"id" json:"id"`
	Title     string     `firestore:"title" json:"title"`
	Completed bool       `firestore:"completed" json:"completed"`
	StartTime Timestamp  `firestore:"startTime" json:"startTime"`
	DoneTime  *Timestamp `firestore:"doneTime,omitempty" json:"doneTime,omitempty"`
}

// Normalized returns a copy with every timestamp truncated to whole seconds.
func (t Todo) Normalized() Todo {
	t.StartTime = t.StartTime.Normalized()
	if t.DoneTime != nil {
		done := t.DoneTime.Normalized()
		t.DoneTime = &done
	}
	return t
}
