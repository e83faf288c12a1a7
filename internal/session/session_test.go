package session

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/dashboard"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository/memory"
	"github.com/Kerhoff/GiftSync/internal/store"
)

type memFactory struct {
	db     *memory.DB
	logger *logrus.Logger
}

func (f memFactory) NewListStore(userID uuid.UUID) *store.ListStore {
	return store.NewListStore(memory.NewListRepository(f.db), userID, f.logger, nil)
}

func (f memFactory) NewItemStore() *store.ItemStore {
	return store.NewItemStore(memory.NewItemRepository(f.db), memory.NewLinkRepository(f.db), f.logger, nil)
}

func setup(t *testing.T) (*Manager, *memory.DB, *models.User) {
	t.Helper()
	db := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	user, err := memory.NewUserRepository(db).Create(context.Background(), &models.User{Email: "ana@example.com"})
	require.NoError(t, err)
	return NewManager(memFactory{db: db, logger: logger}, time.Hour), db, user
}

func TestGetReusesSessionPerUser(t *testing.T) {
	m, _, user := setup(t)
	key := Key{ChatID: 1, UserID: 10}

	a := m.Get(key, user.ID)
	b := m.Get(key, user.ID)
	assert.Same(t, a, b)

	c := m.Get(key, uuid.New())
	assert.NotSame(t, a, c)
	assert.Equal(t, 1, m.Len())
}

func TestUseLoadsItemsAndFilters(t *testing.T) {
	m, db, user := setup(t)
	ctx := context.Background()

	list, err := memory.NewListRepository(db).Create(ctx, &models.GiftList{UserID: user.ID, Name: "Birthday"})
	require.NoError(t, err)
	items := memory.NewItemRepository(db)
	_, err = items.Create(ctx, &models.GiftItem{ListID: list.ID, Name: "Headphones", Status: models.ItemStatusRequired, SortOrder: 1})
	require.NoError(t, err)
	_, err = items.Create(ctx, &models.GiftItem{ListID: list.ID, Name: "Scarf", Status: models.ItemStatusOptional, SortOrder: 2})
	require.NoError(t, err)

	s := m.Get(Key{ChatID: 1, UserID: 10}, user.ID)
	assert.Error(t, s.Reload(ctx))

	require.NoError(t, s.Use(ctx, list.ID))
	assert.Equal(t, list.ID, s.Active())
	assert.Len(t, s.View(), 2)

	s.SetFilter(dashboard.FilterHighValue)
	assert.Empty(t, s.View())
	assert.Len(t, s.Items.Items(), 2)

	second, ok := s.ItemAt(2)
	require.True(t, ok)
	assert.Equal(t, "Scarf", second.Name)
	_, ok = s.ItemAt(3)
	assert.False(t, ok)

	s.Selection.Toggle(list.ID, second.ID)
	selected := s.SelectedItems()
	require.Len(t, selected, 1)
	assert.Equal(t, second.ID, selected[0].ID)

	s.Leave()
	assert.Equal(t, uuid.Nil, s.Active())
	assert.Zero(t, s.Selection.Count(list.ID))
}

func TestListAtCoversOwnedThenShared(t *testing.T) {
	m, db, user := setup(t)
	ctx := context.Background()

	other, err := memory.NewUserRepository(db).Create(ctx, &models.User{Email: "bob@example.com"})
	require.NoError(t, err)
	lists := memory.NewListRepository(db)
	own, err := lists.Create(ctx, &models.GiftList{UserID: user.ID, Name: "Mine"})
	require.NoError(t, err)
	theirs, err := lists.Create(ctx, &models.GiftList{UserID: other.ID, Name: "Theirs"})
	require.NoError(t, err)
	_, err = memory.NewMemberRepository(db).Add(ctx, &models.ListMember{ListID: theirs.ID, UserID: user.ID, Role: models.RoleViewer})
	require.NoError(t, err)

	s := m.Get(Key{ChatID: 1, UserID: 10}, user.ID)
	s.Lists.Fetch(ctx)

	first, ok := s.ListAt(1)
	require.True(t, ok)
	assert.Equal(t, own.ID, first.ID)
	second, ok := s.ListAt(2)
	require.True(t, ok)
	assert.Equal(t, theirs.ID, second.ID)
	assert.True(t, second.IsShared)
}

func TestSweepDropsIdleSessions(t *testing.T) {
	m, _, user := setup(t)
	clock := time.Now()
	m.now = func() time.Time { return clock }

	m.Get(Key{ChatID: 1, UserID: 10}, user.ID)
	clock = clock.Add(30 * time.Minute)
	m.Get(Key{ChatID: 2, UserID: 10}, user.ID)
	clock = clock.Add(45 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}
