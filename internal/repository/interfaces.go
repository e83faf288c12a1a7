package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
)

var (
	// ErrNotFound is returned by mutations whose target row does not exist.
	// Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// SessionRepository stores issued sign-in sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ListRepository defines the interface for gift list operations
type ListRepository interface {
	Create(ctx context.Context, list *models.GiftList) (*models.GiftList, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.GiftList, error)
	// GetByOwner returns the user's own lists, newest first, with item counts.
	GetByOwner(ctx context.Context, userID uuid.UUID) ([]*models.GiftList, error)
	// GetShared returns lists the user collaborates on, with Role set.
	GetShared(ctx context.Context, userID uuid.UUID) ([]*models.GiftList, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UpdateListInput, now time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ItemRepository defines the interface for gift item operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.GiftItem) (*models.GiftItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.GiftItem, error)
	// GetByList returns the list's items by ascending sort order with their
	// retailer links attached.
	GetByList(ctx context.Context, listID uuid.UUID) ([]*models.GiftItem, error)
	// MaxSortOrder returns the highest sort order in the list, 0 when empty.
	MaxSortOrder(ctx context.Context, listID uuid.UUID) (int, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UpdateItemInput, now time.Time) error
	SetCompleted(ctx context.Context, ids []uuid.UUID, value bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LinkRepository defines the interface for retailer link operations
type LinkRepository interface {
	Create(ctx context.Context, link *models.RetailerLink) (*models.RetailerLink, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.RetailerLink, error)
	GetByItem(ctx context.Context, itemID uuid.UUID) ([]*models.RetailerLink, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InviteRepository defines the interface for list invite operations
type InviteRepository interface {
	Create(ctx context.Context, invite *models.ListInvite) (*models.ListInvite, error)
	// GetByToken returns the invite with ListName joined in.
	GetByToken(ctx context.Context, token string) (*models.ListInvite, error)
	// GetPending returns an unaccepted, unexpired invite for the pair.
	GetPending(ctx context.Context, listID uuid.UUID, email string, now time.Time) (*models.ListInvite, error)
	GetByList(ctx context.Context, listID uuid.UUID) ([]*models.ListInvite, error)
	MarkAccepted(ctx context.Context, id, userID uuid.UUID, at time.Time) error
}

// MemberRepository defines the interface for list collaborator operations
type MemberRepository interface {
	// Add inserts a membership; it returns ErrDuplicate when the user
	// already belongs to the list.
	Add(ctx context.Context, member *models.ListMember) (*models.ListMember, error)
	Get(ctx context.Context, listID, userID uuid.UUID) (*models.ListMember, error)
	GetByList(ctx context.Context, listID uuid.UUID) ([]*models.ListMember, error)
	Remove(ctx context.Context, listID, userID uuid.UUID) error
}
