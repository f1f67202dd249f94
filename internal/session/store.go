// Package session persists triage sessions between requests.
package session

import (
	"context"
	"errors"

	"github.com/wolfman30/symptom-scout/internal/triage"
)

var (
	ErrNotFound = errors.New("session: not found")
	// ErrLocked means another request holds the session's turn lock.
	ErrLocked = errors.New("session: locked by another request")
)

// Store loads and saves sessions. Lock serializes turns for one session and
// fails fast with ErrLocked instead of waiting.
type Store interface {
	Get(ctx context.Context, id string) (*triage.Session, error)
	Save(ctx context.Context, s *triage.Session) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (unlock func(), err error)
}
