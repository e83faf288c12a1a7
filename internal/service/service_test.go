package service

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/auth"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
	"github.com/Kerhoff/GiftSync/internal/repository/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repos := Repositories{
		Users:    memory.NewUserRepository(db),
		Sessions: memory.NewSessionRepository(db),
		Lists:    memory.NewListRepository(db),
		Items:    memory.NewItemRepository(db),
		Links:    memory.NewLinkRepository(db),
		Invites:  memory.NewInviteRepository(db),
		Members:  memory.NewMemberRepository(db),
	}
	authSvc := auth.NewService(repos.Users, repos.Sessions, logger, "secret", time.Millisecond)
	return New(logger, nil, repos, authSvc, nil)
}

func TestRoles(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	owner, err := s.Users.Create(ctx, &models.User{Email: "owner@example.com"})
	require.NoError(t, err)
	editor, err := s.Users.Create(ctx, &models.User{Email: "editor@example.com"})
	require.NoError(t, err)
	viewer, err := s.Users.Create(ctx, &models.User{Email: "viewer@example.com"})
	require.NoError(t, err)
	stranger, err := s.Users.Create(ctx, &models.User{Email: "stranger@example.com"})
	require.NoError(t, err)

	list, err := s.Lists.Create(ctx, &models.GiftList{UserID: owner.ID, Name: "Birthday", Color: models.DefaultListColor})
	require.NoError(t, err)
	_, err = s.Members.Add(ctx, &models.ListMember{ListID: list.ID, UserID: editor.ID, Role: models.RoleEditor})
	require.NoError(t, err)
	_, err = s.Members.Add(ctx, &models.ListMember{ListID: list.ID, UserID: viewer.ID, Role: models.RoleViewer})
	require.NoError(t, err)

	_, role, err := s.RequireEdit(ctx, owner.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)

	_, role, err = s.RequireEdit(ctx, editor.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)

	_, _, err = s.RequireEdit(ctx, viewer.ID, list.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	_, role, err = s.RequireRead(ctx, viewer.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, role)

	_, _, err = s.RequireRead(ctx, stranger.ID, list.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = s.RequireOwner(ctx, editor.ID, list.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, _, err = s.RoleFor(ctx, owner.ID, uuid.New())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestItemAndLinkLookup(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	owner, err := s.Users.Create(ctx, &models.User{Email: "owner@example.com"})
	require.NoError(t, err)
	list, err := s.Lists.Create(ctx, &models.GiftList{UserID: owner.ID, Name: "Birthday"})
	require.NoError(t, err)
	item, err := s.Items.Create(ctx, &models.GiftItem{ListID: list.ID, Name: "Lamp", Status: models.ItemStatusRequired, SortOrder: 1})
	require.NoError(t, err)
	link, err := s.Links.Create(ctx, &models.RetailerLink{ItemID: item.ID, StoreName: "IKEA", URL: "https://ikea.com"})
	require.NoError(t, err)

	listID, err := s.ItemList(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, list.ID, listID)

	itemID, listID, err := s.LinkList(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, itemID)
	assert.Equal(t, list.ID, listID)

	_, err = s.ItemList(ctx, uuid.New())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

type countingSessions struct {
	repository.SessionRepository
	sweeps atomic.Int32
}

func (c *countingSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	c.sweeps.Add(1)
	return c.SessionRepository.DeleteExpired(ctx, now)
}

func TestSessionSweeperRunsUntilCancelled(t *testing.T) {
	s := newTestService(t)
	sessions := &countingSessions{SessionRepository: s.Sessions}
	s.Auth = auth.NewService(s.Users, sessions, s.logger, "secret", time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.StartSessionSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return sessions.sweeps.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
