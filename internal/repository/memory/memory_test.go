package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

func TestDeleteListCascades(t *testing.T) {
	ctx := context.Background()
	db := New()
	users := NewUserRepository(db)
	lists := NewListRepository(db)
	items := NewItemRepository(db)
	links := NewLinkRepository(db)

	owner, err := users.Create(ctx, &models.User{Email: "Owner@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", owner.Email)

	list, err := lists.Create(ctx, &models.GiftList{UserID: owner.ID, Name: "Birthday", Color: models.DefaultListColor})
	require.NoError(t, err)

	item, err := items.Create(ctx, &models.GiftItem{ListID: list.ID, Name: "Headphones", Status: models.ItemStatusRequired, SortOrder: 1})
	require.NoError(t, err)

	link, err := links.Create(ctx, &models.RetailerLink{ItemID: item.ID, StoreName: "Amazon", URL: "https://amazon.com/x"})
	require.NoError(t, err)

	got, err := items.GetByList(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].RetailerLinks, 1)

	require.NoError(t, lists.Delete(ctx, list.ID))

	gone, err := links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	orphan, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan)

	assert.ErrorIs(t, lists.Delete(ctx, list.ID), repository.ErrNotFound)
}

func TestMemberAddRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := New()
	users := NewUserRepository(db)
	lists := NewListRepository(db)
	members := NewMemberRepository(db)

	owner, _ := users.Create(ctx, &models.User{Email: "a@example.com"})
	guest, _ := users.Create(ctx, &models.User{Email: "b@example.com"})
	list, _ := lists.Create(ctx, &models.GiftList{UserID: owner.ID, Name: "Holidays"})

	_, err := members.Add(ctx, &models.ListMember{ListID: list.ID, UserID: guest.ID, Role: models.RoleViewer})
	require.NoError(t, err)

	_, err = members.Add(ctx, &models.ListMember{ListID: list.ID, UserID: guest.ID, Role: models.RoleEditor})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	shared, err := lists.GetShared(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.True(t, shared[0].IsShared)
	assert.Equal(t, models.RoleViewer, shared[0].Role)
}

func TestPendingInviteIgnoresExpiredAndAccepted(t *testing.T) {
	ctx := context.Background()
	db := New()
	users := NewUserRepository(db)
	lists := NewListRepository(db)
	invites := NewInviteRepository(db)

	owner, _ := users.Create(ctx, &models.User{Email: "a@example.com"})
	list, _ := lists.Create(ctx, &models.GiftList{UserID: owner.ID, Name: "Holidays"})
	now := time.Now()

	_, err := invites.Create(ctx, &models.ListInvite{
		ListID: list.ID, Token: "expired", Email: "G@Example.com", Role: models.RoleEditor,
		InvitedBy: owner.ID, ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	pending, err := invites.GetPending(ctx, list.ID, "g@example.com", now)
	require.NoError(t, err)
	assert.Nil(t, pending)

	live, err := invites.Create(ctx, &models.ListInvite{
		ListID: list.ID, Token: "live", Email: "g@example.com", Role: models.RoleEditor,
		InvitedBy: owner.ID, ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Holidays", live.ListName)

	pending, err = invites.GetPending(ctx, list.ID, "g@example.com", now)
	require.NoError(t, err)
	require.NotNil(t, pending)

	require.NoError(t, invites.MarkAccepted(ctx, live.ID, owner.ID, now))
	pending, err = invites.GetPending(ctx, list.ID, "g@example.com", now)
	require.NoError(t, err)
	assert.Nil(t, pending)
}
