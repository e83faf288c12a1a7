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

type listRepository struct {
	db *sql.DB
}

// NewListRepository creates a new gift list repository
func NewListRepository(db *sql.DB) repository.ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(ctx context.Context, list *models.GiftList) (*models.GiftList, error) {
	query := `
		INSERT INTO gift_lists (user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	list.CreatedAt = now
	list.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		list.UserID,
		list.Name,
		list.Color,
		list.CreatedAt,
		list.UpdatedAt,
	).Scan(&list.ID, &list.CreatedAt, &list.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create gift list: %w", err)
	}

	return list, nil
}

func (r *listRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GiftList, error) {
	query := `
		SELECT l.id, l.user_id, l.name, l.color, l.created_at, l.updated_at,
			(SELECT COUNT(*) FROM gift_items i WHERE i.list_id = l.id)
		FROM gift_lists l
		WHERE l.id = $1`

	list := &models.GiftList{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&list.ID,
		&list.UserID,
		&list.Name,
		&list.Color,
		&list.CreatedAt,
		&list.UpdatedAt,
		&list.ItemCount,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get gift list by ID: %w", err)
	}

	return list, nil
}

func (r *listRepository) GetByOwner(ctx context.Context, userID uuid.UUID) ([]*models.GiftList, error) {
	query := `
		SELECT l.id, l.user_id, l.name, l.color, l.created_at, l.updated_at,
			(SELECT COUNT(*) FROM gift_items i WHERE i.list_id = l.id)
		FROM gift_lists l
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gift lists by owner: %w", err)
	}
	defer rows.Close()

	var lists []*models.GiftList
	for rows.Next() {
		list := &models.GiftList{IsOwner: true, Role: models.RoleOwner}
		if err := rows.Scan(
			&list.ID,
			&list.UserID,
			&list.Name,
			&list.Color,
			&list.CreatedAt,
			&list.UpdatedAt,
			&list.ItemCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan gift list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

func (r *listRepository) GetShared(ctx context.Context, userID uuid.UUID) ([]*models.GiftList, error) {
	query := `
		SELECT l.id, l.user_id, l.name, l.color, l.created_at, l.updated_at,
			(SELECT COUNT(*) FROM gift_items i WHERE i.list_id = l.id),
			m.role
		FROM list_members m
		INNER JOIN gift_lists l ON l.id = m.list_id
		WHERE m.user_id = $1
		ORDER BY m.invited_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shared gift lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.GiftList
	for rows.Next() {
		list := &models.GiftList{IsShared: true}
		if err := rows.Scan(
			&list.ID,
			&list.UserID,
			&list.Name,
			&list.Color,
			&list.CreatedAt,
			&list.UpdatedAt,
			&list.ItemCount,
			&list.Role,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shared gift list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

func (r *listRepository) Update(ctx context.Context, id uuid.UUID, patch models.UpdateListInput, now time.Time) error {
	p := newPatchBuilder(id)
	if patch.Name != nil {
		p.set("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Color != nil {
		p.set("color", *patch.Color)
	}
	p.set("updated_at", now)

	result, err := r.db.ExecContext(ctx, p.query("gift_lists"), p.args...)
	if err != nil {
		return fmt.Errorf("failed to update gift list: %w", err)
	}

	return requireRow(result, "gift list", id)
}

func (r *listRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gift_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gift list: %w", err)
	}

	return requireRow(result, "gift list", id)
}

// requireRow turns a zero-row mutation into repository.ErrNotFound.
func requireRow(result sql.Result, entity string, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s with ID %s: %w", entity, id, repository.ErrNotFound)
	}

	return nil
}
