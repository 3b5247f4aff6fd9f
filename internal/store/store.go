// Package store defines the storage collaborator used by business steps and
// a small condition builder shared by the SQL implementations.
package store

import (
	"context"
	"fmt"

	"bizflow/internal/shared"
)

// Repository is the record store a business domain depends on.
//
// Fetch, Update and Delete return an error marked shared.KindNotFound when
// the record does not exist; Insert returns one marked shared.KindConflict on
// a uniqueness violation. Other driver faults are marked
// shared.KindDependencyFailure.
type Repository[T any, ID comparable] interface {
	Fetch(ctx context.Context, id ID) (T, error)
	// Query returns one page of matching records and the total match count.
	Query(ctx context.Context, cond *Condition, page Page) ([]T, int64, error)
	// Insert stores rec and fills generated fields.
	Insert(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id ID) error
}

// NotFound returns an error for a missing record of kind entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, shared.ErrNotFound)
}

// Page selects a window of records.
type Page struct {
	Offset int64
	Limit  int64
}

// PageOf converts a 1-based page number and size into a Page. Values below 1
// are treated as 1.
func PageOf(page, size int64) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	return Page{Offset: (page - 1) * size, Limit: size}
}
