// Package pgstore implements inventory.Store on PostgreSQL via pgx.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bizflow/internal/inventory"
	"bizflow/internal/platform/pg"
	"bizflow/internal/shared"
	"bizflow/internal/store"
)

const selectItem = `SELECT id, sku, name, quantity, created_at, updated_at FROM items`

var columns = map[string]string{
	inventory.FieldID:       "id",
	inventory.FieldSKU:      "sku",
	inventory.FieldQuantity: "quantity",
}

// Store is an inventory.Store backed by PostgreSQL.
type Store struct {
	tx *pg.TxRunner
}

var _ inventory.Store = (*Store)(nil)

// New creates a Store. Calls made inside tx.WithinTx join that transaction.
func New(tx *pg.TxRunner) *Store {
	return &Store{tx: tx}
}

func (s *Store) Fetch(ctx context.Context, id int64) (inventory.Item, error) {
	rows, err := s.tx.Querier(ctx).Query(ctx, selectItem+` WHERE id = $1`, id)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("fetch item %d: %w", id, pg.Classify(err))
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("fetch item %d: %w", id, pg.Classify(err))
	}
	return item, nil
}

func (s *Store) Query(ctx context.Context, cond *store.Condition, page store.Page) ([]inventory.Item, int64, error) {
	where, order, args, err := cond.SQL(columns, store.Dollar, 1, "id")
	if err != nil {
		return nil, 0, err
	}
	q := s.tx.Querier(ctx)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", pg.Classify(err))
	}
	if total == 0 {
		return []inventory.Item{}, 0, nil
	}

	sql := selectItem + where + order + fmt.Sprintf(` OFFSET %s`, store.Dollar(len(args)+1))
	args = append(args, page.Offset)
	if page.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT %s`, store.Dollar(len(args)+1))
		args = append(args, page.Limit)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", pg.Classify(err))
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, 0, fmt.Errorf("collect items: %w", pg.Classify(err))
	}
	return items, total, nil
}

func (s *Store) Insert(ctx context.Context, item *inventory.Item) error {
	err := s.tx.Querier(ctx).QueryRow(ctx,
		`INSERT INTO items (sku, name, quantity, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		item.SKU, item.Name, item.Quantity, item.CreatedAt.UnixMilli(), item.UpdatedAt.UnixMilli(),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.SKU, pg.Classify(err))
	}
	return nil
}

func (s *Store) Update(ctx context.Context, item *inventory.Item) error {
	tag, err := s.tx.Querier(ctx).Exec(ctx,
		`UPDATE items SET sku = $1, name = $2, quantity = $3, updated_at = $4 WHERE id = $5`,
		item.SKU, item.Name, item.Quantity, item.UpdatedAt.UnixMilli(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, pg.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return store.NotFound("item", item.ID)
	}
	return nil
}

func (s *Store) AdjustQuantity(ctx context.Context, id, delta int64, at time.Time) (inventory.Item, error) {
	lo, hi := inventory.QuantityBounds(delta)
	rows, err := s.tx.Querier(ctx).Query(ctx,
		`UPDATE items SET quantity = quantity + $1, updated_at = $2
		 WHERE id = $3 AND quantity BETWEEN $4 AND $5
		 RETURNING id, sku, name, quantity, created_at, updated_at`,
		delta, at.UnixMilli(), id, lo, hi,
	)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("adjust item %d: %w", id, pg.Classify(err))
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Item{}, shared.Wrapf(shared.ErrConflict, "adjust item %d by %d", id, delta)
	}
	if err != nil {
		return inventory.Item{}, fmt.Errorf("adjust item %d: %w", id, pg.Classify(err))
	}
	return item, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.tx.Querier(ctx).Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, pg.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return store.NotFound("item", id)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (inventory.Item, error) {
	var (
		item             inventory.Item
		created, updated int64
	)
	if err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Quantity, &created, &updated); err != nil {
		return inventory.Item{}, err
	}
	item.CreatedAt = time.UnixMilli(created).UTC()
	item.UpdatedAt = time.UnixMilli(updated).UTC()
	return item, nil
}
