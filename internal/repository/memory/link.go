package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type linkRepository struct {
	db *DB
}

// NewLinkRepository creates a retailer link repository backed by db.
func NewLinkRepository(db *DB) repository.LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(_ context.Context, link *models.RetailerLink) (*models.RetailerLink, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.items[link.ItemID]; !ok {
		return nil, fmt.Errorf("failed to create retailer link: unknown item %s", link.ItemID)
	}

	stored := link.Clone()
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	r.db.links[stored.ID] = stored

	created := stored.Clone()
	return &created, nil
}

func (r *linkRepository) GetByID(_ context.Context, id uuid.UUID) (*models.RetailerLink, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.links[id]
	if !ok {
		return nil, nil
	}
	c := l.Clone()
	return &c, nil
}

func (r *linkRepository) GetByItem(_ context.Context, itemID uuid.UUID) ([]*models.RetailerLink, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var links []*models.RetailerLink
	for _, l := range r.db.linksOf(itemID) {
		links = append(links, &l)
	}
	return links, nil
}

func (r *linkRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.links[id]; !ok {
		return fmt.Errorf("retailer link with ID %s: %w", id, repository.ErrNotFound)
	}
	delete(r.db.links, id)
	return nil
}
