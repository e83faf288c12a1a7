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

type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new retailer link repository
func NewLinkRepository(db *sql.DB) repository.LinkRepository {
	return &linkRepository{db: db}
}

func scanLink(row interface{ Scan(...any) error }, link *models.RetailerLink) error {
	return row.Scan(
		&link.ID,
		&link.ItemID,
		&link.StoreName,
		&link.URL,
		&link.Price,
		&link.IsBestPrice,
		&link.IsHighend,
		&link.CreatedAt,
	)
}

func (r *linkRepository) Create(ctx context.Context, link *models.RetailerLink) (*models.RetailerLink, error) {
	query := `
		INSERT INTO retailer_links (item_id, store_name, url, price, is_best_price, is_highend, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	link.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		link.ItemID,
		link.StoreName,
		link.URL,
		link.Price,
		link.IsBestPrice,
		link.IsHighend,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create retailer link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RetailerLink, error) {
	query := `
		SELECT id, item_id, store_name, url, price, is_best_price, is_highend, created_at
		FROM retailer_links
		WHERE id = $1`

	link := &models.RetailerLink{}
	if err := scanLink(r.db.QueryRowContext(ctx, query, id), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get retailer link by ID: %w", err)
	}

	return link, nil
}

func (r *linkRepository) GetByItem(ctx context.Context, itemID uuid.UUID) ([]*models.RetailerLink, error) {
	query := `
		SELECT id, item_id, store_name, url, price, is_best_price, is_highend, created_at
		FROM retailer_links
		WHERE item_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query retailer links: %w", err)
	}
	defer rows.Close()

	var links []*models.RetailerLink
	for rows.Next() {
		link := &models.RetailerLink{}
		if err := scanLink(rows, link); err != nil {
			return nil, fmt.Errorf("failed to scan retailer link: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func (r *linkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM retailer_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete retailer link: %w", err)
	}

	return requireRow(result, "retailer link", id)
}
