package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type sessionRepository struct {
	db *DB
}

// NewSessionRepository creates a session repository backed by db.
func NewSessionRepository(db *DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(_ context.Context, session *models.Session) (*models.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	r.db.sessions[session.ID] = *session

	created := *session
	return &created, nil
}

func (r *sessionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *sessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.sessions, id)
	return nil
}

func (r *sessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, s := range r.db.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}
