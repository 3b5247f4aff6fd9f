// Package inventory is the stock-keeping business domain: item records,
// their code table and the steps that read and change them.
package inventory

import (
	"context"
	"math"
	"time"

	"bizflow/internal/biz"
	"bizflow/internal/store"
)

// BizType tags requests of this domain.
const BizType = "inventory"

// Item is a stock-keeping unit and its on-hand quantity.
type Item struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository stores items by id.
type Repository = store.Repository[Item, int64]

// Store is a Repository that can change a quantity in a single statement.
type Store interface {
	Repository

	// AdjustQuantity adds delta to the quantity of item id and returns the
	// updated item. When the item is missing, or the new quantity would be
	// negative or overflow int64, nothing is written and an error of kind
	// shared.KindConflict is returned.
	AdjustQuantity(ctx context.Context, id, delta int64, at time.Time) (Item, error)
}

// QuantityBounds returns the range a current quantity must lie in for
// delta to be applied without going negative or overflowing.
func QuantityBounds(delta int64) (lo, hi int64) {
	lo, hi = 0, math.MaxInt64
	if delta < 0 {
		lo = -delta
	} else {
		hi -= delta
	}
	return lo, hi
}

// Transactor runs fn inside one storage transaction; store calls made with
// the context passed to fn join it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Field names understood by Repository.Query conditions.
const (
	FieldID       = "id"
	FieldSKU      = "sku"
	FieldQuantity = "quantity"
)

// NewItem is the payload of the create step.
type NewItem struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Quantity int64  `json:"quantity" validate:"gte=0"`
}

// ItemRef addresses one item.
type ItemRef struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// ItemQuery filters the item list.
type ItemQuery struct {
	biz.PageQuery
	SKU         string `json:"sku" form:"sku" validate:"max=64"`
	MinQuantity *int64 `json:"minQuantity" form:"minQuantity" validate:"omitempty,gte=0"`
}

// Adjustment changes the quantity of an item by Delta.
type Adjustment struct {
	ID    int64 `json:"id" validate:"gt=0"`
	Delta int64 `json:"delta" validate:"ne=0"`
}

// LowStockQuery selects items with quantity below Threshold.
type LowStockQuery struct {
	Threshold int64 `json:"threshold" validate:"gte=0"`
}
