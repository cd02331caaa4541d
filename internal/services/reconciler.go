package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ytakahashi/focus-session-server/internal/models"
)

// ErrSyncFailed wraps a remote commit failure. The buffered session is
// gone by then (at-most-once): callers may tell the user the last
// session was not saved, but a retry would risk a duplicate commit.
var ErrSyncFailed = errors.New("sync failed")

// SessionSink commits one session to a user's durable collection.
type SessionSink interface {
	Append(ctx context.Context, uid string, session models.Session) error
}

// LocalBuffer is the staging slot the reconciler drains.
type LocalBuffer interface {
	Take() (models.Session, bool, error)
}

// Reconciler moves the buffered session into the remote store. It runs
// once per successful login.
type Reconciler struct {
	buffer LocalBuffer
	sink   SessionSink
}

func NewReconciler(buffer LocalBuffer, sink SessionSink) *Reconciler {
	return &Reconciler{buffer: buffer, sink: sink}
}

// Drain takes the buffered session, if any, and commits it under the
// authenticated user. Buffer read failures are treated as an empty
// buffer. The session is not re-buffered on commit failure.
func (r *Reconciler) Drain(ctx context.Context, uid string) error {
	session, ok, err := r.buffer.Take()
	if err != nil {
		log.Printf("Failed to read session buffer, treating as empty: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	// Re-normalize in case the slot held data written by an older
	// client.
	session = session.Normalized()

	if err := r.sink.Append(ctx, uid, session); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	return nil
}
