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

type itemRepository struct {
	db *DB
}

// NewItemRepository creates a gift item repository backed by db.
func NewItemRepository(db *DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(_ context.Context, item *models.GiftItem) (*models.GiftItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.lists[item.ListID]; !ok {
		return nil, fmt.Errorf("failed to create gift item: unknown list %s", item.ListID)
	}

	now := time.Now()
	stored := item.Clone()
	stored.ID = uuid.New()
	stored.IsCompleted = false
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.RetailerLinks = nil
	r.db.items[stored.ID] = stored

	created := stored.Clone()
	return &created, nil
}

func (r *itemRepository) GetByID(_ context.Context, id uuid.UUID) (*models.GiftItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	it, ok := r.db.items[id]
	if !ok {
		return nil, nil
	}
	c := it.Clone()
	c.RetailerLinks = r.db.linksOf(id)
	return &c, nil
}

func (r *itemRepository) GetByList(_ context.Context, listID uuid.UUID) ([]*models.GiftItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var items []*models.GiftItem
	for _, it := range r.db.items {
		if it.ListID != listID {
			continue
		}
		c := it.Clone()
		c.RetailerLinks = r.db.linksOf(it.ID)
		items = append(items, &c)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *itemRepository) MaxSortOrder(_ context.Context, listID uuid.UUID) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	maxOrder := 0
	for _, it := range r.db.items {
		if it.ListID == listID && it.SortOrder > maxOrder {
			maxOrder = it.SortOrder
		}
	}
	return maxOrder, nil
}

func (r *itemRepository) Update(_ context.Context, id uuid.UUID, patch models.UpdateItemInput, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	it, ok := r.db.items[id]
	if !ok {
		return fmt.Errorf("gift item with ID %s: %w", id, repository.ErrNotFound)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	patch.Apply(&it, now)
	r.db.items[id] = it
	return nil
}

func (r *itemRepository) SetCompleted(_ context.Context, ids []uuid.UUID, value bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	for _, id := range ids {
		it, ok := r.db.items[id]
		if !ok {
			continue
		}
		it.IsCompleted = value
		it.UpdatedAt = now
		r.db.items[id] = it
	}
	return nil
}

func (r *itemRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.items[id]; !ok {
		return fmt.Errorf("gift item with ID %s: %w", id, repository.ErrNotFound)
	}
	r.db.deleteItem(id)
	return nil
}
