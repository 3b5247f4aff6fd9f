package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"bizflow/internal/shared"
	"bizflow/internal/store"
)

// memRepo is an in-memory Repository understanding Eq, Lt and Gte filters.
type memRepo struct {
	mu     sync.Mutex
	items  map[int64]Item
	nextID int64

	failFetch  func(id int64) error
	failQuery  error
	failDelete error
}

func newMemRepo(items ...Item) *memRepo {
	r := &memRepo{items: map[int64]Item{}, nextID: 1}
	for _, it := range items {
		_ = r.Insert(context.Background(), &it)
	}
	return r
}

func (r *memRepo) Fetch(_ context.Context, id int64) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFetch != nil {
		if err := r.failFetch(id); err != nil {
			return Item{}, err
		}
	}
	it, ok := r.items[id]
	if !ok {
		return Item{}, store.NotFound("item", id)
	}
	return it, nil
}

func (r *memRepo) Query(_ context.Context, cond *store.Condition, page store.Page) ([]Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failQuery != nil {
		return nil, 0, r.failQuery
	}

	var out []Item
	for _, it := range r.items {
		if matches(it, cond.Filters()) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	total := int64(len(out))
	lo := min(page.Offset, total)
	hi := total
	if page.Limit > 0 {
		hi = min(lo+page.Limit, total)
	}
	return out[lo:hi], total, nil
}

func matches(it Item, filters []store.Filter) bool {
	for _, f := range filters {
		var v int64
		switch f.Field {
		case FieldSKU:
			if !strings.EqualFold(it.SKU, f.Value.(string)) {
				return false
			}
			continue
		case FieldQuantity:
			v = it.Quantity
		case FieldID:
			v = it.ID
		}
		want := f.Value.(int64)
		switch f.Op {
		case store.OpEq:
			if v != want {
				return false
			}
		case store.OpLt:
			if v >= want {
				return false
			}
		case store.OpGte:
			if v < want {
				return false
			}
		}
	}
	return true
}

func (r *memRepo) Insert(_ context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.SKU == it.SKU {
			return shared.MarkKind(errors.New("UNIQUE constraint failed: items.sku"), shared.KindConflict)
		}
	}
	it.ID = r.nextID
	r.nextID++
	r.items[it.ID] = *it
	return nil
}

func (r *memRepo) Update(_ context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; !ok {
		return store.NotFound("item", it.ID)
	}
	r.items[it.ID] = *it
	return nil
}

func (r *memRepo) AdjustQuantity(_ context.Context, id, delta int64, at time.Time) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lo, hi := QuantityBounds(delta)
	it, ok := r.items[id]
	if !ok || it.Quantity < lo || it.Quantity > hi {
		return Item{}, shared.Wrapf(shared.ErrConflict, "adjust item %d", id)
	}
	it.Quantity += delta
	it.UpdatedAt = at
	r.items[id] = it
	return it, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return r.failDelete
	}
	if _, ok := r.items[id]; !ok {
		return store.NotFound("item", id)
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
