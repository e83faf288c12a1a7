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

type listRepository struct {
	db *DB
}

// NewListRepository creates a gift list repository backed by db.
func NewListRepository(db *DB) repository.ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(_ context.Context, list *models.GiftList) (*models.GiftList, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[list.UserID]; !ok {
		return nil, fmt.Errorf("failed to create gift list: unknown user %s", list.UserID)
	}

	now := time.Now()
	stored := models.GiftList{
		ID:        uuid.New(),
		UserID:    list.UserID,
		Name:      list.Name,
		Color:     list.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.db.lists[stored.ID] = stored

	return &stored, nil
}

func (r *listRepository) GetByID(_ context.Context, id uuid.UUID) (*models.GiftList, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.lists[id]
	if !ok {
		return nil, nil
	}
	l.ItemCount = r.db.itemCount(id)
	return &l, nil
}

func (r *listRepository) GetByOwner(_ context.Context, userID uuid.UUID) ([]*models.GiftList, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var lists []*models.GiftList
	for _, l := range r.db.lists {
		if l.UserID != userID {
			continue
		}
		l.ItemCount = r.db.itemCount(l.ID)
		l.IsOwner = true
		l.Role = models.RoleOwner
		lists = append(lists, &l)
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})
	return lists, nil
}

func (r *listRepository) GetShared(_ context.Context, userID uuid.UUID) ([]*models.GiftList, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var members []models.ListMember
	for _, m := range r.db.members {
		if m.UserID == userID {
			members = append(members, m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].InvitedAt.Before(members[j].InvitedAt)
	})

	var lists []*models.GiftList
	for _, m := range members {
		l, ok := r.db.lists[m.ListID]
		if !ok {
			continue
		}
		l.ItemCount = r.db.itemCount(l.ID)
		l.IsShared = true
		l.Role = m.Role
		lists = append(lists, &l)
	}
	return lists, nil
}

func (r *listRepository) Update(_ context.Context, id uuid.UUID, patch models.UpdateListInput, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	l, ok := r.db.lists[id]
	if !ok {
		return fmt.Errorf("gift list with ID %s: %w", id, repository.ErrNotFound)
	}
	if patch.Name != nil {
		l.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Color != nil {
		l.Color = *patch.Color
	}
	l.UpdatedAt = now
	r.db.lists[id] = l
	return nil
}

func (r *listRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[id]; !ok {
		return fmt.Errorf("gift list with ID %s: %w", id, repository.ErrNotFound)
	}
	r.db.deleteList(id)
	return nil
}
