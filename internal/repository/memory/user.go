package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type userRepository struct {
	db *DB
}

// NewUserRepository creates a user repository backed by db.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.db.users {
		if user.Email != "" && u.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
		if user.TelegramID != nil && u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
			return nil, repository.ErrDuplicate
		}
	}

	now := time.Now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.db.users[user.ID] = *user

	created := *user
	return &created, nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.db.users {
		if email != "" && u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[user.ID]; !ok {
		return nil, fmt.Errorf("user with ID %s: %w", user.ID, repository.ErrNotFound)
	}
	user.UpdatedAt = time.Now()
	r.db.users[user.ID] = *user

	updated := *user
	return &updated, nil
}
