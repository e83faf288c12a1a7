package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/auth"
	"github.com/Kerhoff/GiftSync/internal/invite"
	"github.com/Kerhoff/GiftSync/internal/metrics"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
	"github.com/Kerhoff/GiftSync/internal/store"
)

// Repositories groups one implementation of every gateway table.
type Repositories struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Lists    repository.ListRepository
	Items    repository.ItemRepository
	Links    repository.LinkRepository
	Invites  repository.InviteRepository
	Members  repository.MemberRepository
}

// Service is the central layer shared by the HTTP API and the Telegram bot.
// It holds the repositories and the auth and invite services built on them.
type Service struct {
	Repositories

	logger  *logrus.Logger
	metrics *metrics.Metrics

	Auth        *auth.Service
	Invitations *invite.Service
}

// New creates a Service with all required dependencies.
func New(logger *logrus.Logger, m *metrics.Metrics, repos Repositories, authSvc *auth.Service, inviteSvc *invite.Service) *Service {
	return &Service{
		Repositories: repos,
		logger:       logger,
		metrics:      m,
		Auth:         authSvc,
		Invitations:  inviteSvc,
	}
}

// Logger returns the shared logger.
func (s *Service) Logger() *logrus.Logger { return s.logger }

// Metrics returns the shared metrics registry; it may be nil.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// NewListStore creates a list store scoped to userID.
func (s *Service) NewListStore(userID uuid.UUID) *store.ListStore {
	return store.NewListStore(s.Lists, userID, s.logger, s.metrics)
}

// NewItemStore creates an empty item store.
func (s *Service) NewItemStore() *store.ItemStore {
	return store.NewItemStore(s.Items, s.Links, s.logger, s.metrics)
}

// RoleFor returns the user's role on the list: owner for the list's creator,
// the membership role for collaborators, and "" otherwise. A missing list
// yields a not-found error.
func (s *Service) RoleFor(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, models.MemberRole, error) {
	list, err := s.Lists.GetByID(ctx, listID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get list %s: %w", listID, err)
	}
	if list == nil {
		return nil, "", apperrors.NotFound("List not found")
	}
	if list.UserID == userID {
		return list, models.RoleOwner, nil
	}

	member, err := s.Members.Get(ctx, listID, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get membership (list=%s, user=%s): %w", listID, userID, err)
	}
	if member == nil {
		return list, "", nil
	}
	return list, member.Role, nil
}

// RequireRead fails unless the user can see the list.
func (s *Service) RequireRead(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, models.MemberRole, error) {
	list, role, err := s.RoleFor(ctx, userID, listID)
	if err != nil {
		return nil, "", err
	}
	if role == "" {
		// Hide the list from strangers.
		return nil, "", apperrors.NotFound("List not found")
	}
	return list, role, nil
}

// RequireEdit fails unless the user may mutate the list's items.
func (s *Service) RequireEdit(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, models.MemberRole, error) {
	list, role, err := s.RequireRead(ctx, userID, listID)
	if err != nil {
		return nil, "", err
	}
	if !role.CanEdit() {
		return nil, "", apperrors.Forbidden("You do not have permission to edit this list")
	}
	return list, role, nil
}

// RequireOwner fails unless the user owns the list.
func (s *Service) RequireOwner(ctx context.Context, userID, listID uuid.UUID) (*models.GiftList, error) {
	list, role, err := s.RequireRead(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleOwner {
		return nil, apperrors.Forbidden("Only the list owner can do that")
	}
	return list, nil
}

// ItemList returns the id of the list an item belongs to.
func (s *Service) ItemList(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	item, err := s.Items.GetByID(ctx, itemID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}
	if item == nil {
		return uuid.Nil, apperrors.NotFound("Item not found")
	}
	return item.ListID, nil
}

// LinkList returns the id of the list a retailer link belongs to.
func (s *Service) LinkList(ctx context.Context, linkID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	link, err := s.Links.GetByID(ctx, linkID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to get link %s: %w", linkID, err)
	}
	if link == nil {
		return uuid.Nil, uuid.Nil, apperrors.NotFound("Link not found")
	}
	listID, err := s.ItemList(ctx, link.ItemID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return link.ItemID, listID, nil
}
