package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new list member repository
func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Add(ctx context.Context, member *models.ListMember) (*models.ListMember, error) {
	query := `
		INSERT INTO list_members (list_id, user_id, role, invited_by, invited_at, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if member.InvitedAt.IsZero() {
		member.InvitedAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		member.ListID,
		member.UserID,
		member.Role,
		member.InvitedBy,
		member.InvitedAt,
		member.AcceptedAt,
	).Scan(&member.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to add list member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) Get(ctx context.Context, listID, userID uuid.UUID) (*models.ListMember, error) {
	query := `
		SELECT id, list_id, user_id, role, invited_by, invited_at, accepted_at
		FROM list_members
		WHERE list_id = $1 AND user_id = $2`

	member := &models.ListMember{}
	err := r.db.QueryRowContext(ctx, query, listID, userID).Scan(
		&member.ID,
		&member.ListID,
		&member.UserID,
		&member.Role,
		&member.InvitedBy,
		&member.InvitedAt,
		&member.AcceptedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get list member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]*models.ListMember, error) {
	query := `
		SELECT id, list_id, user_id, role, invited_by, invited_at, accepted_at
		FROM list_members
		WHERE list_id = $1
		ORDER BY invited_at ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list members: %w", err)
	}
	defer rows.Close()

	var members []*models.ListMember
	for rows.Next() {
		member := &models.ListMember{}
		if err := rows.Scan(
			&member.ID,
			&member.ListID,
			&member.UserID,
			&member.Role,
			&member.InvitedBy,
			&member.InvitedAt,
			&member.AcceptedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan list member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (r *memberRepository) Remove(ctx context.Context, listID, userID uuid.UUID) error {
	query := `DELETE FROM list_members WHERE list_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, listID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove list member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("member not found in list %s: %w", listID, repository.ErrNotFound)
	}

	return nil
}
