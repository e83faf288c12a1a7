package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/metrics"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

const entityItem = "item"

// ItemStore holds the items of one list and mutates them optimistically.
//
// The collection is copy-on-write: every mutation installs a new slice, so a
// slice captured before a remote call is a valid rollback snapshot. The mutex
// is never held while the gateway is being called.
type ItemStore struct {
	items   repository.ItemRepository
	links   repository.LinkRepository
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	listID  uuid.UUID
	state   []models.GiftItem
	loading bool
	errMsg  string
	version uint64
}

// NewItemStore creates an empty store. It reports loading until the first
// Fetch completes.
func NewItemStore(items repository.ItemRepository, links repository.LinkRepository, logger *logrus.Logger, m *metrics.Metrics) *ItemStore {
	return &ItemStore{
		items:   items,
		links:   links,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		loading: true,
	}
}

// Items returns a deep copy of the current collection.
func (s *ItemStore) Items() []models.GiftItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.GiftItem, len(s.state))
	for i, it := range s.state {
		out[i] = it.Clone()
	}
	return out
}

// Item returns a copy of one item.
func (s *ItemStore) Item(id uuid.UUID) (models.GiftItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfItem(s.state, id); i >= 0 {
		return s.state[i].Clone(), true
	}
	return models.GiftItem{}, false
}

// ListID returns the list the store was last fetched for.
func (s *ItemStore) ListID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listID
}

// Loading reports whether a fetch is in flight.
func (s *ItemStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message left by the last fetch, or "".
func (s *ItemStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Version increases on every state change.
func (s *ItemStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// setState must be called with mu held.
func (s *ItemStore) setState(next []models.GiftItem) {
	s.state = next
	s.version++
}

// mapItems installs a copy of the collection with fn applied to every item
// matching pred. Must be called with mu held.
func (s *ItemStore) mapItems(pred func(*models.GiftItem) bool, fn func(*models.GiftItem)) {
	next := make([]models.GiftItem, len(s.state))
	for i, it := range s.state {
		if pred(&it) {
			it = it.Clone()
			fn(&it)
		}
		next[i] = it
	}
	s.setState(next)
}

// Fetch replaces the collection with the items of listID.
func (s *ItemStore) Fetch(ctx context.Context, listID uuid.UUID) {
	s.mu.Lock()
	s.loading = true
	s.listID = listID
	s.mu.Unlock()

	rows, err := s.items.GetByList(ctx, listID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"list_id": listID,
			"error":   err,
		}).Error("Fetch items failed")
		s.errMsg = msgLoadItems
		return
	}

	next := make([]models.GiftItem, 0, len(rows))
	for _, r := range rows {
		it := r.Clone()
		if it.RetailerLinks == nil {
			it.RetailerLinks = []models.RetailerLink{}
		}
		next = append(next, it)
	}
	s.setState(next)
	s.errMsg = ""
}

// Create validates input, inserts the item with the next sort order and
// appends it once the gateway has confirmed the insert. A failed create
// leaves the collection untouched.
func (s *ItemStore) Create(ctx context.Context, in models.CreateItemInput) (*models.GiftItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation(msgItemNameRequired)
	}
	status := in.Status
	if status == "" {
		status = models.ItemStatusRequired
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	if err := validatePrices(in.PriceLow, in.PriceHigh); err != nil {
		return nil, err
	}

	// Two concurrent creates can read the same maximum; sort orders may then
	// collide. Display order stays stable because ties fall back to creation time.
	maxOrder, err := s.items.MaxSortOrder(ctx, in.ListID)
	if err != nil {
		return nil, s.remoteFailure("create", msgCreateItem, err, logrus.Fields{"list_id": in.ListID})
	}

	var valueTag *string
	if in.ValueTag != nil {
		valueTag = trimmedOrNil(*in.ValueTag)
	}

	created, err := s.items.Create(ctx, &models.GiftItem{
		ListID:    in.ListID,
		Name:      name,
		Status:    status,
		Notes:     trimmedOrNil(in.Notes),
		PriceLow:  in.PriceLow,
		PriceHigh: in.PriceHigh,
		ValueTag:  valueTag,
		SortOrder: maxOrder + 1,
	})
	if err != nil {
		return nil, s.remoteFailure("create", msgCreateItem, err, logrus.Fields{"list_id": in.ListID})
	}

	item := created.Clone()
	item.RetailerLinks = []models.RetailerLink{}

	s.mu.Lock()
	next := append(slices.Clone(s.state), item)
	s.setState(next)
	s.mu.Unlock()

	s.metrics.ObserveMutation(entityItem, "create", nil)
	out := item.Clone()
	return &out, nil
}

// Update patches the item locally, then remotely. The local patch is kept
// even when the remote call fails; callers re-fetch to recover.
func (s *ItemStore) Update(ctx context.Context, id uuid.UUID, patch models.UpdateItemInput) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return apperrors.Validation(msgItemNameRequired)
		}
		patch.Name = &name
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return err
		}
	}
	if patch.Notes != nil {
		notes := strings.TrimSpace(*patch.Notes)
		if notes == "" {
			patch.Notes = nil
			patch.ClearNotes = true
		} else {
			patch.Notes = &notes
		}
	}

	now := s.now()

	s.mu.Lock()
	if i := indexOfItem(s.state, id); i >= 0 {
		prospective := s.state[i].Clone()
		patch.Apply(&prospective, now)
		if err := validatePrices(prospective.PriceLow, prospective.PriceHigh); err != nil {
			s.mu.Unlock()
			return err
		}
	} else if err := validatePrices(patch.PriceLow, patch.PriceHigh); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mapItems(func(it *models.GiftItem) bool { return it.ID == id }, func(it *models.GiftItem) {
		patch.Apply(it, now)
	})
	s.mu.Unlock()

	if err := s.items.Update(ctx, id, patch, now); err != nil {
		return s.remoteFailure("update", msgUpdateItem, err, logrus.Fields{"item_id": id})
	}

	s.metrics.ObserveMutation(entityItem, "update", nil)
	return nil
}

// Remove deletes the item optimistically and restores the full pre-removal
// collection if the gateway rejects the delete.
func (s *ItemStore) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	snapshot := s.state
	s.setState(slices.DeleteFunc(slices.Clone(s.state), func(it models.GiftItem) bool {
		return it.ID == id
	}))
	s.mu.Unlock()

	if err := s.items.Delete(ctx, id); err != nil {
		s.restore(snapshot, "remove")
		return s.remoteFailure("remove", msgDeleteItem, err, logrus.Fields{"item_id": id})
	}

	s.metrics.ObserveMutation(entityItem, "remove", nil)
	return nil
}

// ToggleComplete flips the completion flag from current. On failure only
// that item's flag is put back to current.
func (s *ItemStore) ToggleComplete(ctx context.Context, id uuid.UUID, current bool) error {
	next := !current
	s.setCompleted(func(it *models.GiftItem) bool { return it.ID == id }, next)

	now := s.now()
	if err := s.items.Update(ctx, id, models.UpdateItemInput{IsCompleted: &next}, now); err != nil {
		s.setCompleted(func(it *models.GiftItem) bool { return it.ID == id }, current)
		s.metrics.ObserveRollback(entityItem, "toggle")
		return s.remoteFailure("toggle", msgUpdateItem, err, logrus.Fields{"item_id": id})
	}

	s.metrics.ObserveMutation(entityItem, "toggle", nil)
	return nil
}

// BulkMarkComplete sets the completion flag of every id in one remote call.
// Any failure restores the whole collection as it was before the call.
func (s *ItemStore) BulkMarkComplete(ctx context.Context, ids []uuid.UUID, value bool) error {
	if len(ids) == 0 {
		return apperrors.Validation(msgNoItemsSelected)
	}

	targets := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	s.mu.Lock()
	snapshot := s.state
	s.mapItems(func(it *models.GiftItem) bool {
		_, ok := targets[it.ID]
		return ok
	}, func(it *models.GiftItem) {
		it.IsCompleted = value
	})
	s.mu.Unlock()

	if err := s.items.SetCompleted(ctx, ids, value); err != nil {
		s.restore(snapshot, "bulk_complete")
		return s.remoteFailure("bulk_complete", msgUpdateItems, err, logrus.Fields{"count": len(ids)})
	}

	s.metrics.ObserveMutation(entityItem, "bulk_complete", nil)
	return nil
}

// AddLink inserts a retailer link and attaches it to its item once the
// gateway has confirmed the insert.
func (s *ItemStore) AddLink(ctx context.Context, itemID uuid.UUID, in models.LinkInput) (*models.RetailerLink, error) {
	if err := validateLink(in); err != nil {
		return nil, err
	}

	created, err := s.links.Create(ctx, &models.RetailerLink{
		ItemID:      itemID,
		StoreName:   strings.TrimSpace(in.StoreName),
		URL:         strings.TrimSpace(in.URL),
		Price:       in.Price,
		IsBestPrice: in.IsBestPrice,
		IsHighend:   in.IsHighend,
	})
	if err != nil {
		return nil, s.remoteFailure("add_link", msgAddLink, err, logrus.Fields{"item_id": itemID})
	}

	link := created.Clone()
	s.mu.Lock()
	s.mapItems(func(it *models.GiftItem) bool { return it.ID == itemID }, func(it *models.GiftItem) {
		it.RetailerLinks = append(it.RetailerLinks, link.Clone())
	})
	s.mu.Unlock()

	s.metrics.ObserveMutation(entityItem, "add_link", nil)
	return &link, nil
}

// RemoveLink detaches a link optimistically, restoring the snapshot on failure.
func (s *ItemStore) RemoveLink(ctx context.Context, itemID, linkID uuid.UUID) error {
	s.mu.Lock()
	snapshot := s.state
	s.mapItems(func(it *models.GiftItem) bool { return it.ID == itemID }, func(it *models.GiftItem) {
		it.RetailerLinks = slices.DeleteFunc(it.RetailerLinks, func(l models.RetailerLink) bool {
			return l.ID == linkID
		})
	})
	s.mu.Unlock()

	if err := s.links.Delete(ctx, linkID); err != nil {
		s.restore(snapshot, "remove_link")
		return s.remoteFailure("remove_link", msgDeleteLink, err, logrus.Fields{"item_id": itemID, "link_id": linkID})
	}

	s.metrics.ObserveMutation(entityItem, "remove_link", nil)
	return nil
}

func (s *ItemStore) setCompleted(pred func(*models.GiftItem) bool, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapItems(pred, func(it *models.GiftItem) { it.IsCompleted = value })
}

func (s *ItemStore) restore(snapshot []models.GiftItem, op string) {
	s.mu.Lock()
	s.setState(snapshot)
	s.mu.Unlock()
	s.metrics.ObserveRollback(entityItem, op)
}

// remoteFailure logs the cause and returns the generic message.
func (s *ItemStore) remoteFailure(op, msg string, err error, fields logrus.Fields) error {
	fields["op"] = op
	fields["error"] = err
	s.logger.WithFields(fields).Error("Item mutation failed")
	s.metrics.ObserveMutation(entityItem, op, err)
	return apperrors.Remote(msg, err)
}

func indexOfItem(items []models.GiftItem, id uuid.UUID) int {
	return slices.IndexFunc(items, func(it models.GiftItem) bool { return it.ID == id })
}
