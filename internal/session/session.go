// Package session keeps the client-side state of each chat user: the list
// and item stores, the selection, the privacy blur and the active list and
// filter. Nothing here is persisted.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/dashboard"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/selection"
	"github.com/Kerhoff/GiftSync/internal/store"
)

// DefaultIdle is how long an untouched session is kept.
const DefaultIdle = 2 * time.Hour

// Key identifies one user in one chat.
type Key struct {
	ChatID int64
	UserID int64
}

// StoreFactory builds the stores a session owns.
type StoreFactory interface {
	NewListStore(userID uuid.UUID) *store.ListStore
	NewItemStore() *store.ItemStore
}

// Session is the state of one user in one chat.
type Session struct {
	UserID    uuid.UUID
	Lists     *store.ListStore
	Items     *store.ItemStore
	Selection *selection.Tracker
	Privacy   dashboard.Privacy

	mu       sync.Mutex
	active   uuid.UUID
	filter   dashboard.Filter
	lastSeen time.Time
}

// Active returns the id of the list being viewed, or uuid.Nil.
func (s *Session) Active() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Use switches to listID and loads its items.
func (s *Session) Use(ctx context.Context, listID uuid.UUID) error {
	s.mu.Lock()
	s.active = listID
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Leave clears the active list, dropping its selection.
func (s *Session) Leave() {
	s.mu.Lock()
	listID := s.active
	s.active = uuid.Nil
	s.mu.Unlock()

	if listID != uuid.Nil {
		s.Selection.Clear(listID)
	}
}

// Reload re-fetches the active list's items.
func (s *Session) Reload(ctx context.Context) error {
	listID := s.Active()
	if listID == uuid.Nil {
		return apperrors.Validation("No list selected. Use /lists and /use first.")
	}
	s.Items.Fetch(ctx, listID)
	if msg := s.Items.Err(); msg != "" {
		return apperrors.Remote(msg, nil)
	}
	return nil
}

// Filter returns the active filter.
func (s *Session) Filter() dashboard.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == "" {
		return dashboard.FilterAll
	}
	return s.filter
}

// SetFilter changes the active filter.
func (s *Session) SetFilter(f dashboard.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// View returns the active list's items that pass the active filter.
func (s *Session) View() []models.GiftItem {
	return dashboard.Apply(s.Items.Items(), s.Filter())
}

// ItemAt returns the n-th item (1-based) of the active list in display order.
func (s *Session) ItemAt(n int) (models.GiftItem, bool) {
	items := s.Items.Items()
	if n < 1 || n > len(items) {
		return models.GiftItem{}, false
	}
	return items[n-1], true
}

// AllLists returns owned lists followed by shared ones.
func (s *Session) AllLists() []models.GiftList {
	return append(s.Lists.Lists(), s.Lists.Shared()...)
}

// ListAt returns the n-th list (1-based) of AllLists.
func (s *Session) ListAt(n int) (models.GiftList, bool) {
	lists := s.AllLists()
	if n < 1 || n > len(lists) {
		return models.GiftList{}, false
	}
	return lists[n-1], true
}

// SelectedItems returns the selected items of the active list in display order.
func (s *Session) SelectedItems() []models.GiftItem {
	listID := s.Active()
	var out []models.GiftItem
	for _, it := range s.Items.Items() {
		if s.Selection.IsSelected(listID, it.ID) {
			out = append(out, it)
		}
	}
	return out
}

// Manager hands out sessions and drops idle ones.
type Manager struct {
	factory StoreFactory
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[Key]*Session
}

// NewManager creates a session manager.
func NewManager(factory StoreFactory, idle time.Duration) *Manager {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Manager{
		factory:  factory,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[Key]*Session),
	}
}

// Get returns the session for key, creating it on first use. A session
// bound to a different user is replaced.
func (m *Manager) Get(key Key, userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok || s.UserID != userID {
		s = &Session{
			UserID:    userID,
			Lists:     m.factory.NewListStore(userID),
			Items:     m.factory.NewItemStore(),
			Selection: selection.New(),
		}
		m.sessions[key] = s
	}
	s.mu.Lock()
	s.lastSeen = m.now()
	s.mu.Unlock()
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the idle window.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idle)
	n := 0
	for key, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, key)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
