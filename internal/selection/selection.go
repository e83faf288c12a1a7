// Package selection tracks which items the user has picked for a bulk
// action, separately for every list. Selections live only in memory.
package selection

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
)

type set map[uuid.UUID]struct{}

// Tracker maps a list id to the set of selected item ids.
//
// Every mutation installs a fresh set for the list and bumps Version, so a
// reader holding an older Version knows its view is stale.
type Tracker struct {
	mu      sync.RWMutex
	byList  map[uuid.UUID]set
	version uint64
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{byList: make(map[uuid.UUID]set)}
}

// replace must be called with mu held.
func (t *Tracker) replace(listID uuid.UUID, next set) {
	if len(next) == 0 {
		delete(t.byList, listID)
	} else {
		t.byList[listID] = next
	}
	t.version++
}

func (t *Tracker) copyOf(listID uuid.UUID) set {
	cur := t.byList[listID]
	next := make(set, len(cur)+1)
	for id := range cur {
		next[id] = struct{}{}
	}
	return next
}

// Toggle flips membership of itemID in the list's selection.
func (t *Tracker) Toggle(listID, itemID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.copyOf(listID)
	if _, ok := next[itemID]; ok {
		delete(next, itemID)
	} else {
		next[itemID] = struct{}{}
	}
	t.replace(listID, next)
}

// SelectAll replaces the selection with every supplied item.
func (t *Tracker) SelectAll(listID uuid.UUID, items []models.GiftItem) {
	t.selectWhere(listID, items, func(models.GiftItem) bool { return true })
}

// SelectRequired replaces the selection with the supplied required items.
func (t *Tracker) SelectRequired(listID uuid.UUID, items []models.GiftItem) {
	t.selectWhere(listID, items, func(it models.GiftItem) bool {
		return it.Status == models.ItemStatusRequired
	})
}

// SelectOptional replaces the selection with the supplied optional items.
func (t *Tracker) SelectOptional(listID uuid.UUID, items []models.GiftItem) {
	t.selectWhere(listID, items, func(it models.GiftItem) bool {
		return it.Status == models.ItemStatusOptional
	})
}

func (t *Tracker) selectWhere(listID uuid.UUID, items []models.GiftItem, keep func(models.GiftItem) bool) {
	next := make(set, len(items))
	for _, it := range items {
		if keep(it) {
			next[it.ID] = struct{}{}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.replace(listID, next)
}

// Clear empties the list's selection.
func (t *Tracker) Clear(listID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replace(listID, nil)
}

// Selected returns the selected ids of a list in a stable order.
func (t *Tracker) Selected(listID uuid.UUID) []uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(t.byList[listID]))
	for id := range t.byList[listID] {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return ids
}

// IsSelected reports whether itemID is selected in the list.
func (t *Tracker) IsSelected(listID, itemID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byList[listID][itemID]
	return ok
}

// Count returns the number of selected items in the list.
func (t *Tracker) Count(listID uuid.UUID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byList[listID])
}

// Counts returns the selection size of every list with a non-empty selection.
func (t *Tracker) Counts() map[uuid.UUID]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[uuid.UUID]int, len(t.byList))
	for id, s := range t.byList {
		out[id] = len(s)
	}
	return out
}

// Version increases on every mutation.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}
