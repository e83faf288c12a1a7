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

const entityList = "list"

// ListStore holds the lists visible to one user: the lists they own and the
// lists shared with them.
type ListStore struct {
	lists   repository.ListRepository
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	userID  uuid.UUID
	owned   []models.GiftList
	shared  []models.GiftList
	loading bool
	errMsg  string
	version uint64
}

// NewListStore creates a store for userID. A zero userID makes every remote
// operation fail with "Not authenticated".
func NewListStore(lists repository.ListRepository, userID uuid.UUID, logger *logrus.Logger, m *metrics.Metrics) *ListStore {
	return &ListStore{
		lists:   lists,
		userID:  userID,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		loading: true,
	}
}

// Lists returns a copy of the owned lists, newest first.
func (s *ListStore) Lists() []models.GiftList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.owned)
}

// Shared returns a copy of the lists shared with the user.
func (s *ListStore) Shared() []models.GiftList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.shared)
}

// List looks a list up among both owned and shared lists.
func (s *ListStore) List(id uuid.UUID) (models.GiftList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range [][]models.GiftList{s.owned, s.shared} {
		if i := indexOfList(set, id); i >= 0 {
			return set[i], true
		}
	}
	return models.GiftList{}, false
}

// Loading reports whether a fetch is in flight.
func (s *ListStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message left by the last fetch, or "".
func (s *ListStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Version increases on every state change.
func (s *ListStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *ListStore) setOwned(next []models.GiftList) {
	s.owned = next
	s.version++
}

// Fetch reloads owned and shared lists. A failure to load shared lists is
// logged and leaves the shared collection empty.
func (s *ListStore) Fetch(ctx context.Context) {
	if s.userID == uuid.Nil {
		s.mu.Lock()
		s.loading = false
		s.errMsg = msgNotAuthenticated
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	owned, err := s.lists.GetByOwner(ctx, s.userID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": s.userID,
			"error":   err,
		}).Error("Fetch lists failed")

		s.mu.Lock()
		s.loading = false
		s.errMsg = msgLoadLists
		s.mu.Unlock()
		return
	}

	shared, err := s.lists.GetShared(ctx, s.userID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": s.userID,
			"error":   err,
		}).Warn("Fetch shared lists failed")
		shared = nil
	}

	nextOwned := make([]models.GiftList, 0, len(owned))
	for _, l := range owned {
		l.IsOwner = true
		l.IsShared = false
		nextOwned = append(nextOwned, *l)
	}
	nextShared := make([]models.GiftList, 0, len(shared))
	for _, l := range shared {
		l.IsOwner = false
		l.IsShared = true
		nextShared = append(nextShared, *l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.errMsg = ""
	s.shared = nextShared
	s.setOwned(nextOwned)
}

// Create inserts a list and prepends it once the gateway has confirmed the
// insert.
func (s *ListStore) Create(ctx context.Context, in models.CreateListInput) (*models.GiftList, error) {
	if s.userID == uuid.Nil {
		return nil, apperrors.Unauthenticated(msgNotAuthenticated)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation(msgListNameRequired)
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultListColor
	}

	created, err := s.lists.Create(ctx, &models.GiftList{
		UserID: s.userID,
		Name:   name,
		Color:  color,
	})
	if err != nil {
		return nil, s.remoteFailure("create", msgCreateList, err, logrus.Fields{"user_id": s.userID})
	}

	list := *created
	list.ItemCount = 0
	list.IsOwner = true
	list.IsShared = false

	s.mu.Lock()
	next := make([]models.GiftList, 0, len(s.owned)+1)
	next = append(next, list)
	next = append(next, s.owned...)
	s.setOwned(next)
	s.mu.Unlock()

	s.metrics.ObserveMutation(entityList, "create", nil)
	return &list, nil
}

// Update patches the list locally, then remotely. The local patch is kept
// even when the remote call fails.
func (s *ListStore) Update(ctx context.Context, id uuid.UUID, patch models.UpdateListInput) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return apperrors.Validation(msgListNameRequired)
		}
		patch.Name = &name
	}

	now := s.now()

	s.mu.Lock()
	next := slices.Clone(s.owned)
	if i := indexOfList(next, id); i >= 0 {
		if patch.Name != nil {
			next[i].Name = *patch.Name
		}
		if patch.Color != nil {
			next[i].Color = *patch.Color
		}
		next[i].UpdatedAt = now
	}
	s.setOwned(next)
	s.mu.Unlock()

	if err := s.lists.Update(ctx, id, patch, now); err != nil {
		return s.remoteFailure("update", msgUpdateList, err, logrus.Fields{"list_id": id})
	}

	s.metrics.ObserveMutation(entityList, "update", nil)
	return nil
}

// Remove deletes the list optimistically and restores the full collection if
// the gateway rejects the delete.
func (s *ListStore) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	snapshot := s.owned
	s.setOwned(slices.DeleteFunc(slices.Clone(s.owned), func(l models.GiftList) bool {
		return l.ID == id
	}))
	s.mu.Unlock()

	if err := s.lists.Delete(ctx, id); err != nil {
		s.mu.Lock()
		s.setOwned(snapshot)
		s.mu.Unlock()
		s.metrics.ObserveRollback(entityList, "remove")
		return s.remoteFailure("remove", msgDeleteList, err, logrus.Fields{"list_id": id})
	}

	s.metrics.ObserveMutation(entityList, "remove", nil)
	return nil
}

func (s *ListStore) remoteFailure(op, msg string, err error, fields logrus.Fields) error {
	fields["op"] = op
	fields["error"] = err
	s.logger.WithFields(fields).Error("List mutation failed")
	s.metrics.ObserveMutation(entityList, op, err)
	return apperrors.Remote(msg, err)
}

func indexOfList(lists []models.GiftList, id uuid.UUID) int {
	return slices.IndexFunc(lists, func(l models.GiftList) bool { return l.ID == id })
}
