package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ytakahashi/focus-session-server/internal/models"

	_ "modernc.org/sqlite"
)

// bufferKey is the single reserved key of the local staging slot. The
// value matches the web client's localStorage key so both write the
// same shape.
const bufferKey = "taskData"

// SessionBuffer is the durable single-slot staging area for a session
// finalized before the user has logged in. At most one session is held:
// Put overwrites, Take reads and clears in one transaction.
type SessionBuffer struct {
	db   *sql.DB
	path string
}

// NewSessionBuffer opens (creating if needed) the sqlite file backing
// the buffer.
func NewSessionBuffer(dbPath string) (*SessionBuffer, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("buffer db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create buffer directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open buffer db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS task_buffer (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure buffer schema: %w", err)
	}

	return &SessionBuffer{db: db, path: dbPath}, nil
}

func (b *SessionBuffer) Close() error {
	return b.db.Close()
}

// Put stages a session, overwriting any unsynced predecessor. Only the
// most recent unsynced session survives. Timestamps are normalized
// before serialization so the slot holds the persisted wire shape.
func (b *SessionBuffer) Put(session models.Session) error {
	data, err := json.Marshal(session.Normalized())
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	_, err = b.db.Exec(`
		INSERT INTO task_buffer (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		bufferKey, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to write buffer: %w", err)
	}
	return nil
}

// Take reads and clears the slot in a single transaction. The second
// boolean is false when the slot was empty.
func (b *SessionBuffer) Take() (models.Session, bool, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return models.Session{}, false, fmt.Errorf("failed to begin take: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(`SELECT value FROM task_buffer WHERE key = ?`, bufferKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("failed to read buffer: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM task_buffer WHERE key = ?`, bufferKey); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to clear buffer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to commit take: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return models.Session{}, false, fmt.Errorf("failed to unmarshal buffered session: %w", err)
	}
	return session, true, nil
}

// IsEmpty reports whether the slot holds an unsynced session.
func (b *SessionBuffer) IsEmpty() (bool, error) {
	var n int
	err := b.db.QueryRow(`SELECT COUNT(*) FROM task_buffer WHERE key = ?`, bufferKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check buffer: %w", err)
	}
	return n == 0, nil
}
