// Package auth handles account sign-up, password sign-in and the signed
// session tokens handed to HTTP clients. Telegram users are provisioned
// without a password and identified by their Telegram id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
	"github.com/Kerhoff/GiftSync/internal/validation"
)

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

const (
	msgEmailTaken         = "An account with this email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgSignUpFailed       = "Failed to create account"
	msgSignInFailed       = "Failed to sign in"
)

// SignUpRequest holds the fields accepted when creating an account.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// SignInRequest holds password sign-in credentials.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Token is a signed session token and the user it belongs to.
type Token struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// Service issues and verifies session tokens.
type Service struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	validator *validation.Validator
	logger    *logrus.Logger
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates an auth service signing tokens with secret.
func NewService(users repository.UserRepository, sessions repository.SessionRepository, logger *logrus.Logger, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		users:     users,
		sessions:  sessions,
		validator: validation.New(),
		logger:    logger,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// SignUp creates a password account.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(msgSignUpFailed, fmt.Errorf("failed to hash password: %w", err))
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperrors.Conflict(msgEmailTaken)
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to create account")
		return nil, apperrors.Remote(msgSignUpFailed, err)
	}

	s.logger.WithField("user_id", user.ID).Info("Account created")
	return user, nil
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Token, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.WithError(err).Error("Failed to look up account")
		return nil, apperrors.Remote(msgSignInFailed, err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}

	return s.issue(ctx, user)
}

// issue persists a session row and signs a token whose jti is its id.
func (s *Service) issue(ctx context.Context, user *models.User) (*Token, error) {
	now := s.now()
	session, err := s.sessions.Create(ctx, &models.Session{
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to create session")
		return nil, apperrors.Remote(msgSignInFailed, err)
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID.String(),
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Internal(msgSignInFailed, fmt.Errorf("failed to sign token: %w", err))
	}

	return &Token{AccessToken: signed, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// parse verifies the signature and expiry and returns the claims.
func (s *Service) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SignOut revokes the token's session. Unknown or invalid tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CurrentUser resolves a token to its user. It returns (nil, nil) when the
// token is missing, malformed, expired or revoked.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.parse(token)
	if err != nil {
		return nil, nil
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, nil
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || !session.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	if session.UserID.String() != claims.Subject {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// EnsureTelegramUser returns the user bound to telegramID, creating it on
// first contact and refreshing the display name when it changes.
func (s *Service) EnsureTelegramUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name == "" {
		name = strings.TrimSpace(username)
	}

	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", telegramID, err)
	}
	if user == nil {
		user, err = s.users.Create(ctx, &models.User{TelegramID: &telegramID, DisplayName: name})
		if err != nil {
			return nil, fmt.Errorf("failed to create user (telegram_id=%d): %w", telegramID, err)
		}
		s.logger.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"telegram_id": telegramID,
		}).Info("Created user for Telegram account")
		return user, nil
	}

	if name != "" && user.DisplayName != name {
		user.DisplayName = name
		user, err = s.users.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to update user (telegram_id=%d): %w", telegramID, err)
		}
	}
	return user, nil
}

// SweepExpired deletes sessions whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
