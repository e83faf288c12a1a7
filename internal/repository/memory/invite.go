package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type inviteRepository struct {
	db *DB
}

// NewInviteRepository creates a list invite repository backed by db.
func NewInviteRepository(db *DB) repository.InviteRepository {
	return &inviteRepository{db: db}
}

// withListName must be called with mu held.
func (r *inviteRepository) withListName(v models.ListInvite) *models.ListInvite {
	if l, ok := r.db.lists[v.ListID]; ok {
		v.ListName = l.Name
	}
	return &v
}

func (r *inviteRepository) Create(_ context.Context, invite *models.ListInvite) (*models.ListInvite, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[invite.ListID]; !ok {
		return nil, fmt.Errorf("failed to create list invite: unknown list %s", invite.ListID)
	}
	for _, v := range r.db.invites {
		if v.Token == invite.Token {
			return nil, repository.ErrDuplicate
		}
	}

	stored := *invite
	stored.ID = uuid.New()
	stored.Email = strings.ToLower(stored.Email)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.db.invites[stored.ID] = stored

	return r.withListName(stored), nil
}

func (r *inviteRepository) GetByToken(_ context.Context, token string) (*models.ListInvite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, v := range r.db.invites {
		if v.Token == token {
			return r.withListName(v), nil
		}
	}
	return nil, nil
}

func (r *inviteRepository) GetPending(_ context.Context, listID uuid.UUID, email string, now time.Time) (*models.ListInvite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	email = strings.ToLower(email)
	for _, v := range r.db.invites {
		if v.ListID == listID && v.Email == email && v.State(now) == models.InviteStatePending {
			return r.withListName(v), nil
		}
	}
	return nil, nil
}

func (r *inviteRepository) GetByList(_ context.Context, listID uuid.UUID) ([]*models.ListInvite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var invites []*models.ListInvite
	for _, v := range r.db.invites {
		if v.ListID == listID {
			invites = append(invites, r.withListName(v))
		}
	}
	sort.SliceStable(invites, func(i, j int) bool {
		return invites[i].CreatedAt.After(invites[j].CreatedAt)
	})
	return invites, nil
}

func (r *inviteRepository) MarkAccepted(_ context.Context, id, userID uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	v, ok := r.db.invites[id]
	if !ok {
		return fmt.Errorf("list invite with ID %s: %w", id, repository.ErrNotFound)
	}
	v.AcceptedAt = &at
	v.AcceptedBy = &userID
	r.db.invites[id] = v
	return nil
}
