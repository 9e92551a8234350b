package ledger

import (
	"context"
	"sort"
)

// Reader queries rows.
type Reader interface {
	// Rows returns the rows matching q in q.Order.
	Rows(ctx context.Context, q Query) ([]Row, error)

	// Count returns the number of rows in the store.
	Count(ctx context.Context) (int64, error)
}

// Writer mutates rows.
type Writer interface {
	// Insert records e and returns the stored row.
	Insert(ctx context.Context, e Entry) (Row, error)

	// Remove deletes the row with the given id.
	Remove(ctx context.Context, id int64) error

	// RemoveBranch deletes the rows recorded exactly at path.
	RemoveBranch(ctx context.Context, path string) (int64, error)

	// DeleteUnder deletes the rows at prefix or below it.
	DeleteUnder(ctx context.Context, prefix string) (int64, error)

	// MoveUnder rewrites the branch of every row at from or below it,
	// replacing the from prefix with to.
	MoveUnder(ctx context.Context, from, to string) (int64, error)
}

// Store is a ledger with a transaction boundary.
type Store interface {
	Reader
	Writer

	// Update runs fn in a single transaction. The writes done through the
	// Writer passed to fn are committed when fn returns nil and discarded
	// otherwise. The returned error is fn's error or the commit error.
	Update(ctx context.Context, fn func(w Writer) error) error

	// Close releases the store.
	Close() error
}

func sortRows(rows []Row, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if order == ByCreated {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.ID < b.ID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
