package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/ytakahashi/focus-session-server/internal/models"
	"google.golang.org/api/iterator"
)

// FirestoreService is the durable per-user session store. Sessions live
// under users/{uid}/analytics, append-only: records are never updated
// once committed.
type FirestoreService struct {
	client *firestore.Client
}

func NewFirestoreService(projectID string) (*FirestoreService, error) {
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %v", err)
	}

	return &FirestoreService{
		client: client,
	}, nil
}

func (fs *FirestoreService) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreService) sessions(uid string) *firestore.CollectionRef {
	return fs.client.Collection("users").Doc(uid).Collection("analytics")
}

// Append commits a session as a new record in the user's collection.
// Timestamps are normalized so the stored shape matches the buffer's.
func (fs *FirestoreService) Append(ctx context.Context, uid string, session models.Session) error {
	if uid == "" {
		return fmt.Errorf("uid is empty")
	}
	_, err := fs.sessions(uid).Doc(uuid.New().String()).Set(ctx, session.Normalized())
	if err != nil {
		return fmt.Errorf("failed to append session: %w", err)
	}
	return nil
}

// ListAll returns every committed session for the user, most-recent-first.
func (fs *FirestoreService) ListAll(ctx context.Context, uid string) ([]models.Session, error) {
	iter := fs.sessions(uid).
		OrderBy("startTime.seconds", firestore.Desc).
		Documents(ctx)

	var sessions []models.Session
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sessions: %w", err)
		}

		var session models.Session
		if err := doc.DataTo(&session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}

		sessions = append(sessions, session)
	}

	return sessions, nil
}
