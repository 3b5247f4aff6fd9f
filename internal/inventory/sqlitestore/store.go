// Package sqlitestore implements inventory.Store on SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bizflow/internal/inventory"
	"bizflow/internal/platform/sqlite"
	"bizflow/internal/shared"
	"bizflow/internal/store"
)

const selectItem = `SELECT id, sku, name, quantity, created_at, updated_at FROM items`

var columns = map[string]string{
	inventory.FieldID:       "id",
	inventory.FieldSKU:      "sku",
	inventory.FieldQuantity: "quantity",
}

// Store is an inventory.Store backed by SQLite.
type Store struct {
	tx *sqlite.TxRunner
}

var _ inventory.Store = (*Store)(nil)

// New creates a Store. Calls made inside tx.WithinTx join that transaction.
func New(tx *sqlite.TxRunner) *Store {
	return &Store{tx: tx}
}

func (s *Store) Fetch(ctx context.Context, id int64) (inventory.Item, error) {
	row := s.tx.Querier(ctx).QueryRowContext(ctx, selectItem+` WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("fetch item %d: %w", id, sqlite.Classify(err))
	}
	return item, nil
}

func (s *Store) Query(ctx context.Context, cond *store.Condition, page store.Page) ([]inventory.Item, int64, error) {
	where, order, args, err := cond.SQL(columns, store.Question, 1, "id")
	if err != nil {
		return nil, 0, err
	}
	q := s.tx.Querier(ctx)

	var total int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", sqlite.Classify(err))
	}
	if total == 0 {
		return []inventory.Item{}, 0, nil
	}

	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.QueryContext(ctx, selectItem+where+order+` LIMIT ? OFFSET ?`, append(args, limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", sqlite.Classify(err))
	}
	defer rows.Close()

	items := make([]inventory.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", sqlite.Classify(err))
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", sqlite.Classify(err))
	}
	return items, total, nil
}

func (s *Store) Insert(ctx context.Context, item *inventory.Item) error {
	err := s.tx.Querier(ctx).QueryRowContext(ctx,
		`INSERT INTO items (sku, name, quantity, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		item.SKU, item.Name, item.Quantity, item.CreatedAt.UnixMilli(), item.UpdatedAt.UnixMilli(),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.SKU, sqlite.Classify(err))
	}
	return nil
}

func (s *Store) Update(ctx context.Context, item *inventory.Item) error {
	res, err := s.tx.Querier(ctx).ExecContext(ctx,
		`UPDATE items SET sku = ?, name = ?, quantity = ?, updated_at = ? WHERE id = ?`,
		item.SKU, item.Name, item.Quantity, item.UpdatedAt.UnixMilli(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, sqlite.Classify(err))
	}
	return affected(res, item.ID)
}

func (s *Store) AdjustQuantity(ctx context.Context, id, delta int64, at time.Time) (inventory.Item, error) {
	lo, hi := inventory.QuantityBounds(delta)
	row := s.tx.Querier(ctx).QueryRowContext(ctx,
		`UPDATE items SET quantity = quantity + ?, updated_at = ?
		 WHERE id = ? AND quantity BETWEEN ? AND ?
		 RETURNING id, sku, name, quantity, created_at, updated_at`,
		delta, at.UnixMilli(), id, lo, hi,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Item{}, shared.Wrapf(shared.ErrConflict, "adjust item %d by %d", id, delta)
	}
	if err != nil {
		return inventory.Item{}, fmt.Errorf("adjust item %d: %w", id, sqlite.Classify(err))
	}
	return item, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.tx.Querier(ctx).ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, sqlite.Classify(err))
	}
	return affected(res, id)
}

func affected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return sqlite.Classify(err)
	}
	if n == 0 {
		return store.NotFound("item", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (inventory.Item, error) {
	var (
		item             inventory.Item
		created, updated int64
	)
	if err := sc.Scan(&item.ID, &item.SKU, &item.Name, &item.Quantity, &created, &updated); err != nil {
		return inventory.Item{}, err
	}
	item.CreatedAt = time.UnixMilli(created).UTC()
	item.UpdatedAt = time.UnixMilli(updated).UTC()
	return item, nil
}
