package ledger

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/financetree/branch"
)

// MemoryStore keeps rows in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	rows   []Row
	nextID int64
	now    func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the clock used for creation times.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{nextID: 1, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rows implements Reader.
func (s *MemoryStore) Rows(ctx context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Row
	for _, r := range s.rows {
		if !q.Range.Contains(r.Date) {
			continue
		}
		if r.Branch == q.Branch || (q.Subtree && branch.Within(r.Branch, q.Branch)) {
			out = append(out, r)
		}
	}
	sortRows(out, q.Order)
	return out, nil
}

// Count implements Reader.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

// Insert implements Writer.
func (s *MemoryStore) Insert(ctx context.Context, e Entry) (row Row, err error) {
	err = s.Update(ctx, func(w Writer) error {
		row, err = w.Insert(ctx, e)
		return err
	})
	return row, err
}

// Remove implements Writer.
func (s *MemoryStore) Remove(ctx context.Context, id int64) error {
	return s.Update(ctx, func(w Writer) error {
		return w.Remove(ctx, id)
	})
}

// RemoveBranch implements Writer.
func (s *MemoryStore) RemoveBranch(ctx context.Context, path string) (n int64, err error) {
	err = s.Update(ctx, func(w Writer) error {
		n, err = w.RemoveBranch(ctx, path)
		return err
	})
	return n, err
}

// DeleteUnder implements Writer.
func (s *MemoryStore) DeleteUnder(ctx context.Context, prefix string) (n int64, err error) {
	err = s.Update(ctx, func(w Writer) error {
		n, err = w.DeleteUnder(ctx, prefix)
		return err
	})
	return n, err
}

// MoveUnder implements Writer.
func (s *MemoryStore) MoveUnder(ctx context.Context, from, to string) (n int64, err error) {
	err = s.Update(ctx, func(w Writer) error {
		n, err = w.MoveUnder(ctx, from, to)
		return err
	})
	return n, err
}

// Update implements Store. fn works on a copy of the rows that replaces the
// live rows only when fn succeeds.
func (s *MemoryStore) Update(ctx context.Context, fn func(w Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memoryTx{rows: slices.Clone(s.rows), nextID: s.nextID, now: s.now}
	if err := fn(staged); err != nil {
		return err
	}
	s.rows, s.nextID = staged.rows, staged.nextID
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// memoryTx is the Writer handed to Update callbacks. It owns its rows slice.
type memoryTx struct {
	rows   []Row
	nextID int64
	now    func() time.Time
}

func (t *memoryTx) Insert(ctx context.Context, e Entry) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	row := Row{
		ID:          t.nextID,
		Date:        Day(e.Date),
		Branch:      e.Branch,
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   t.now(),
	}
	t.nextID++
	t.rows = append(t.rows, row)
	return row, nil
}

func (t *memoryTx) Remove(ctx context.Context, id int64) error {
	n := t.deleteWhere(func(r Row) bool { return r.ID == id })
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (t *memoryTx) RemoveBranch(ctx context.Context, path string) (int64, error) {
	return t.deleteWhere(func(r Row) bool { return r.Branch == path }), nil
}

func (t *memoryTx) DeleteUnder(ctx context.Context, prefix string) (int64, error) {
	return t.deleteWhere(func(r Row) bool { return branch.Within(r.Branch, prefix) }), nil
}

func (t *memoryTx) MoveUnder(ctx context.Context, from, to string) (int64, error) {
	var n int64
	for i := range t.rows {
		if moved, ok := branch.RebaseString(t.rows[i].Branch, from, to); ok {
			t.rows[i].Branch = moved
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) deleteWhere(match func(Row) bool) int64 {
	before := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, match)
	return int64(before - len(t.rows))
}
