// Package invite issues and redeems single-use, time-limited invitations to
// collaborate on a gift list.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/metrics"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
	"github.com/Kerhoff/GiftSync/internal/validation"
)

const (
	// tokenSize is the number of random bytes in a token (128 bits).
	tokenSize = 16
	// DefaultTTL is how long an invite stays redeemable.
	DefaultTTL = 7 * 24 * time.Hour
	// fallbackListName is shown when the invited list has no name.
	fallbackListName = "Gift List"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgListNotFound     = "List not found"
	msgOwnerOnly        = "Only the list owner can invite members"
	msgInvalidEmail     = "Please enter a valid email address"
	msgInvalidRole      = "Role must be editor or viewer"
	msgAlreadyInvited   = "This email has already been invited"
	msgCreateFailed     = "Failed to create invitation"
	msgUnexpected       = "An unexpected error occurred"
	msgInvalid          = "Invalid invitation"
	msgLoginRequired    = "Please log in to accept this invitation"
	msgInvalidOrExpired = "Invalid or expired invitation"
	msgAlreadyUsed      = "This invitation has already been used"
	msgExpired          = "This invitation has expired"
	msgAlreadyMember    = "You are already a member of this list"
	msgJoinFailed       = "Failed to join the list"
)

// Created is returned to the inviter.
type Created struct {
	Invite *models.ListInvite `json:"invite"`
	Token  string             `json:"invite_token"`
	URL    string             `json:"invite_url"`
}

// Details is the read-only preview of a token.
type Details struct {
	Valid     bool              `json:"valid"`
	Error     string            `json:"error,omitempty"`
	ListName  string            `json:"list_name,omitempty"`
	Role      models.MemberRole `json:"role,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// Accepted is returned once a user has joined a list.
type Accepted struct {
	ListID   uuid.UUID `json:"list_id"`
	ListName string    `json:"list_name"`
}

// Service implements the invite lifecycle.
type Service struct {
	lists     repository.ListRepository
	invites   repository.InviteRepository
	members   repository.MemberRepository
	validator *validation.Validator
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	baseURL   string
	ttl       time.Duration

	now      func() time.Time
	newToken func() (string, error)
}

// NewService creates an invite service that builds links under baseURL.
func NewService(
	lists repository.ListRepository,
	invites repository.InviteRepository,
	members repository.MemberRepository,
	logger *logrus.Logger,
	m *metrics.Metrics,
	baseURL string,
) *Service {
	return &Service{
		lists:     lists,
		invites:   invites,
		members:   members,
		validator: validation.New(),
		logger:    logger,
		metrics:   m,
		baseURL:   strings.TrimRight(baseURL, "/"),
		ttl:       DefaultTTL,
		now:       time.Now,
		newToken:  generateToken,
	}
}

// URL returns the shareable link for a token.
func (s *Service) URL(token string) string {
	return s.baseURL + "/invite/" + token
}

// Create issues an invite for email on listID. Only the list owner may
// invite, and at most one pending invite may exist per (list, email).
func (s *Service) Create(ctx context.Context, userID, listID uuid.UUID, email string, role models.MemberRole) (*Created, error) {
	created, err := s.create(ctx, userID, listID, email, role)
	s.metrics.ObserveInvite("create", err)
	return created, err
}

func (s *Service) create(ctx context.Context, userID, listID uuid.UUID, email string, role models.MemberRole) (*Created, error) {
	if userID == uuid.Nil {
		return nil, apperrors.Unauthenticated(msgNotAuthenticated)
	}

	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, s.unexpected("create", err, logrus.Fields{"list_id": listID})
	}
	if list == nil {
		return nil, apperrors.NotFound(msgListNotFound)
	}
	if list.UserID != userID {
		return nil, apperrors.Forbidden(msgOwnerOnly)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !s.validator.Var(email, "required,email") {
		return nil, apperrors.Validation(msgInvalidEmail)
	}
	if role == "" {
		role = models.RoleEditor
	}
	if role != models.RoleEditor && role != models.RoleViewer {
		return nil, apperrors.Validation(msgInvalidRole)
	}

	now := s.now()
	pending, err := s.invites.GetPending(ctx, listID, email, now)
	if err != nil {
		return nil, s.unexpected("create", err, logrus.Fields{"list_id": listID})
	}
	if pending != nil {
		return nil, apperrors.Conflict(msgAlreadyInvited)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, s.unexpected("create", err, logrus.Fields{"list_id": listID})
	}

	invite, err := s.invites.Create(ctx, &models.ListInvite{
		ListID:    listID,
		Token:     token,
		Email:     email,
		Role:      role,
		InvitedBy: userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"list_id": listID,
			"error":   err,
		}).Error("Failed to create invite")
		return nil, apperrors.Remote(msgCreateFailed, err)
	}

	s.logger.WithFields(logrus.Fields{
		"invite_id":  invite.ID,
		"list_id":    listID,
		"role":       role,
		"invited_by": userID,
	}).Info("Invite created")

	return &Created{Invite: invite, Token: token, URL: s.URL(token)}, nil
}

// Details classifies a token without changing anything.
func (s *Service) Details(ctx context.Context, token string) Details {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		s.logger.WithError(err).Error("Failed to look up invite")
		return Details{Error: msgUnexpected}
	}
	if invite == nil {
		return Details{Error: msgInvalid}
	}

	switch invite.State(s.now()) {
	case models.InviteStateAccepted:
		return Details{Error: msgAlreadyUsed}
	case models.InviteStateExpired:
		return Details{Error: msgExpired}
	}

	expires := invite.ExpiresAt
	return Details{
		Valid:     true,
		ListName:  listName(invite),
		Role:      invite.Role,
		ExpiresAt: &expires,
	}
}

// Accept redeems token for userID. The membership row is written before the
// invite is marked accepted; a concurrent accept that already inserted the
// membership still marks the invite and succeeds.
func (s *Service) Accept(ctx context.Context, userID uuid.UUID, token string) (*Accepted, error) {
	accepted, err := s.accept(ctx, userID, token)
	s.metrics.ObserveInvite("accept", err)
	return accepted, err
}

func (s *Service) accept(ctx context.Context, userID uuid.UUID, token string) (*Accepted, error) {
	if userID == uuid.Nil {
		return nil, apperrors.Unauthenticated(msgLoginRequired)
	}

	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, s.unexpected("accept", err, nil)
	}
	if invite == nil {
		return nil, apperrors.NotFound(msgInvalidOrExpired)
	}

	now := s.now()
	switch invite.State(now) {
	case models.InviteStateAccepted:
		return nil, apperrors.Conflict(msgAlreadyUsed)
	case models.InviteStateExpired:
		return nil, apperrors.Validation(msgExpired)
	}

	existing, err := s.members.Get(ctx, invite.ListID, userID)
	if err != nil {
		return nil, s.unexpected("accept", err, logrus.Fields{"list_id": invite.ListID})
	}
	if existing != nil {
		return nil, apperrors.Conflict(msgAlreadyMember)
	}

	invitedBy := invite.InvitedBy
	_, err = s.members.Add(ctx, &models.ListMember{
		ListID:     invite.ListID,
		UserID:     userID,
		Role:       invite.Role,
		InvitedBy:  &invitedBy,
		InvitedAt:  invite.CreatedAt,
		AcceptedAt: &now,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		s.logger.WithFields(logrus.Fields{
			"invite_id": invite.ID,
			"user_id":   userID,
		}).Warn("Membership already exists, marking invite accepted")
	case err != nil:
		s.logger.WithFields(logrus.Fields{
			"invite_id": invite.ID,
			"error":     err,
		}).Error("Failed to add member")
		return nil, apperrors.Remote(msgJoinFailed, err)
	}

	if err := s.invites.MarkAccepted(ctx, invite.ID, userID, now); err != nil {
		s.logger.WithFields(logrus.Fields{
			"invite_id": invite.ID,
			"error":     err,
		}).Error("Failed to mark invite accepted")
	}

	s.logger.WithFields(logrus.Fields{
		"invite_id": invite.ID,
		"list_id":   invite.ListID,
		"user_id":   userID,
	}).Info("Invite accepted")

	return &Accepted{ListID: invite.ListID, ListName: listName(invite)}, nil
}

func (s *Service) unexpected(op string, err error, fields logrus.Fields) error {
	s.logger.WithFields(fields).WithError(err).Errorf("Invite %s failed", op)
	return apperrors.Internal(msgUnexpected, err)
}

func listName(invite *models.ListInvite) string {
	if invite.ListName == "" {
		return fallbackListName
	}
	return invite.ListName
}

// generateToken returns 16 random bytes as 32 lowercase hex characters.
func generateToken() (string, error) {
	b := make([]byte, tokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
