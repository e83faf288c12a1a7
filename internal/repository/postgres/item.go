package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new gift item repository
func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, list_id, name, status, priority, price_low, price_high, notes, value_tag,
	sort_order, is_completed, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }, item *models.GiftItem) error {
	return row.Scan(
		&item.ID,
		&item.ListID,
		&item.Name,
		&item.Status,
		&item.Priority,
		&item.PriceLow,
		&item.PriceHigh,
		&item.Notes,
		&item.ValueTag,
		&item.SortOrder,
		&item.IsCompleted,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}

func (r *itemRepository) Create(ctx context.Context, item *models.GiftItem) (*models.GiftItem, error) {
	query := `
		INSERT INTO gift_items (list_id, name, status, priority, price_low, price_high, notes, value_tag,
			sort_order, is_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, $11)
		RETURNING ` + itemColumns

	now := time.Now()
	created := &models.GiftItem{}
	err := scanItem(r.db.QueryRowContext(ctx, query,
		item.ListID,
		item.Name,
		item.Status,
		item.Priority,
		item.PriceLow,
		item.PriceHigh,
		item.Notes,
		item.ValueTag,
		item.SortOrder,
		now,
		now,
	), created)

	if err != nil {
		return nil, fmt.Errorf("failed to create gift item: %w", err)
	}

	return created, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GiftItem, error) {
	item := &models.GiftItem{}
	err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM gift_items WHERE id = $1`, id), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get gift item by ID: %w", err)
	}

	return item, nil
}

func (r *itemRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]*models.GiftItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM gift_items
		WHERE list_id = $1
		ORDER BY sort_order ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gift items: %w", err)
	}
	defer rows.Close()

	var items []*models.GiftItem
	byID := make(map[uuid.UUID]*models.GiftItem)
	for rows.Next() {
		item := &models.GiftItem{RetailerLinks: []models.RetailerLink{}}
		if err := scanItem(rows, item); err != nil {
			return nil, fmt.Errorf("failed to scan gift item: %w", err)
		}
		items = append(items, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return items, nil
	}

	if err := r.attachLinks(ctx, listID, byID); err != nil {
		return nil, err
	}

	return items, nil
}

// attachLinks loads every retailer link of the list in one query.
func (r *itemRepository) attachLinks(ctx context.Context, listID uuid.UUID, byID map[uuid.UUID]*models.GiftItem) error {
	query := `
		SELECT rl.id, rl.item_id, rl.store_name, rl.url, rl.price, rl.is_best_price, rl.is_highend, rl.created_at
		FROM retailer_links rl
		INNER JOIN gift_items i ON i.id = rl.item_id
		WHERE i.list_id = $1
		ORDER BY rl.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return fmt.Errorf("failed to query retailer links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link models.RetailerLink
		if err := scanLink(rows, &link); err != nil {
			return fmt.Errorf("failed to scan retailer link: %w", err)
		}
		if item, ok := byID[link.ItemID]; ok {
			item.RetailerLinks = append(item.RetailerLinks, link)
		}
	}

	return rows.Err()
}

func (r *itemRepository) MaxSortOrder(ctx context.Context, listID uuid.UUID) (int, error) {
	var maxOrder int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) FROM gift_items WHERE list_id = $1`, listID,
	).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max sort order: %w", err)
	}

	return maxOrder, nil
}

func (r *itemRepository) Update(ctx context.Context, id uuid.UUID, patch models.UpdateItemInput, now time.Time) error {
	p := newPatchBuilder(id)
	if patch.Name != nil {
		p.set("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Status != nil {
		p.set("status", *patch.Status)
	}
	if patch.Priority != nil {
		p.set("priority", *patch.Priority)
	}
	switch {
	case patch.ClearNotes:
		p.set("notes", nil)
	case patch.Notes != nil:
		p.set("notes", strings.TrimSpace(*patch.Notes))
	}
	switch {
	case patch.ClearPriceLow:
		p.set("price_low", nil)
	case patch.PriceLow != nil:
		p.set("price_low", *patch.PriceLow)
	}
	switch {
	case patch.ClearPriceHigh:
		p.set("price_high", nil)
	case patch.PriceHigh != nil:
		p.set("price_high", *patch.PriceHigh)
	}
	switch {
	case patch.ClearValueTag:
		p.set("value_tag", nil)
	case patch.ValueTag != nil:
		p.set("value_tag", *patch.ValueTag)
	}
	if patch.IsCompleted != nil {
		p.set("is_completed", *patch.IsCompleted)
	}
	p.set("updated_at", now)

	result, err := r.db.ExecContext(ctx, p.query("gift_items"), p.args...)
	if err != nil {
		return fmt.Errorf("failed to update gift item: %w", err)
	}

	return requireRow(result, "gift item", id)
}

func (r *itemRepository) SetCompleted(ctx context.Context, ids []uuid.UUID, value bool) error {
	if len(ids) == 0 {
		return nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `
		UPDATE gift_items
		SET is_completed = $1, updated_at = $2
		WHERE id = ANY($3::uuid[])`

	if _, err := r.db.ExecContext(ctx, query, value, time.Now(), pq.Array(raw)); err != nil {
		return fmt.Errorf("failed to set completion on %d gift items: %w", len(ids), err)
	}

	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gift_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gift item: %w", err)
	}

	return requireRow(result, "gift item", id)
}
