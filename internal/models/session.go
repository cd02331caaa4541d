package models

// Session is one completed or abandoned work interval together with the
// todos that were on the ledger when it ended. Sessions are immutable
// once finalized: first staged in the local buffer, then moved into the
// user's Firestore collection on login.
type Session struct {
	StartTime     Timestamp `firestore:"startTime" json:"startTime"`
	EndTime       Timestamp `firestore:"endTime" json:"endTime"`
	FocusDuration int       `firestore:"focusDuration" json:"focusDuration"` // minutes
	Todos         []Todo    `firestore:"todos" json:"todos"`
}

// Normalized returns a copy of the session with every timestamp, including
// those nested in todos, truncated to whole seconds. Applied at every
// serialization boundary so the buffer and Firestore hold identical shapes.
func (s Session) Normalized() Session {
	s.StartTime = s.StartTime.Normalized()
	s.EndTime = s.EndTime.Normalized()
	todos := make([]Todo, len(s.Todos))
	for i, t := range s.Todos {
		todos[i] = t.Normalized()
	}
	s.Todos = todos
	return s
}
