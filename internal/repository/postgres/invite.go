package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type inviteRepository struct {
	db *sql.DB
}

// NewInviteRepository creates a new list invite repository
func NewInviteRepository(db *sql.DB) repository.InviteRepository {
	return &inviteRepository{db: db}
}

const inviteColumns = `li.id, li.list_id, li.invite_token, li.email, li.role, li.invited_by,
	li.created_at, li.expires_at, li.accepted_at, li.accepted_by, COALESCE(gl.name, '')`

func scanInvite(row interface{ Scan(...any) error }, invite *models.ListInvite) error {
	return row.Scan(
		&invite.ID,
		&invite.ListID,
		&invite.Token,
		&invite.Email,
		&invite.Role,
		&invite.InvitedBy,
		&invite.CreatedAt,
		&invite.ExpiresAt,
		&invite.AcceptedAt,
		&invite.AcceptedBy,
		&invite.ListName,
	)
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.ListInvite) (*models.ListInvite, error) {
	query := `
		INSERT INTO list_invites (list_id, invite_token, email, role, invited_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	invite.Email = strings.ToLower(invite.Email)

	err := r.db.QueryRowContext(ctx, query,
		invite.ListID,
		invite.Token,
		invite.Email,
		invite.Role,
		invite.InvitedBy,
		invite.CreatedAt,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create list invite: %w", err)
	}

	return invite, nil
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*models.ListInvite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM list_invites li
		LEFT JOIN gift_lists gl ON gl.id = li.list_id
		WHERE li.invite_token = $1`

	invite := &models.ListInvite{}
	if err := scanInvite(r.db.QueryRowContext(ctx, query, token), invite); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get list invite by token: %w", err)
	}

	return invite, nil
}

func (r *inviteRepository) GetPending(ctx context.Context, listID uuid.UUID, email string, now time.Time) (*models.ListInvite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM list_invites li
		LEFT JOIN gift_lists gl ON gl.id = li.list_id
		WHERE li.list_id = $1 AND li.email = $2 AND li.accepted_at IS NULL AND li.expires_at >= $3
		ORDER BY li.created_at DESC
		LIMIT 1`

	invite := &models.ListInvite{}
	if err := scanInvite(r.db.QueryRowContext(ctx, query, listID, strings.ToLower(email), now), invite); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending list invite: %w", err)
	}

	return invite, nil
}

func (r *inviteRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]*models.ListInvite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM list_invites li
		LEFT JOIN gift_lists gl ON gl.id = li.list_id
		WHERE li.list_id = $1
		ORDER BY li.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.ListInvite
	for rows.Next() {
		invite := &models.ListInvite{}
		if err := scanInvite(rows, invite); err != nil {
			return nil, fmt.Errorf("failed to scan list invite: %w", err)
		}
		invites = append(invites, invite)
	}

	return invites, rows.Err()
}

func (r *inviteRepository) MarkAccepted(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE list_invites
		SET accepted_at = $2, accepted_by = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at, userID)
	if err != nil {
		return fmt.Errorf("failed to mark list invite accepted: %w", err)
	}

	return requireRow(result, "list invite", id)
}
