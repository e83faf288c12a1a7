package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type memberRepository struct {
	db *DB
}

// NewMemberRepository creates a list member repository backed by db.
func NewMemberRepository(db *DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Add(_ context.Context, member *models.ListMember) (*models.ListMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[member.ListID]; !ok {
		return nil, fmt.Errorf("failed to add list member: unknown list %s", member.ListID)
	}
	for _, m := range r.db.members {
		if m.ListID == member.ListID && m.UserID == member.UserID {
			return nil, repository.ErrDuplicate
		}
	}

	stored := *member
	stored.ID = uuid.New()
	if stored.InvitedAt.IsZero() {
		stored.InvitedAt = time.Now()
	}
	r.db.members[stored.ID] = stored

	created := stored
	return &created, nil
}

func (r *memberRepository) Get(_ context.Context, listID, userID uuid.UUID) (*models.ListMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, m := range r.db.members {
		if m.ListID == listID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memberRepository) GetByList(_ context.Context, listID uuid.UUID) ([]*models.ListMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var members []*models.ListMember
	for _, m := range r.db.members {
		if m.ListID == listID {
			members = append(members, &m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].InvitedAt.Before(members[j].InvitedAt)
	})
	return members, nil
}

func (r *memberRepository) Remove(_ context.Context, listID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, m := range r.db.members {
		if m.ListID == listID && m.UserID == userID {
			delete(r.db.members, id)
			return nil
		}
	}
	return fmt.Errorf("member not found in list %s: %w", listID, repository.ErrNotFound)
}
