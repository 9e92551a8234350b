// Package finance is the entry point for front ends. A Book ties the branch
// tree, the ledger, the cascade engine and the aggregator together and
// exposes the caller-facing operations. Branches are addressed by path so
// callers can keep them across reloads. Nothing here prints or prompts.
package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/cascade"
	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/summary"
	"github.com/robinvdvleuten/financetree/telemetry"
	"github.com/robinvdvleuten/financetree/tree"
)

// Default file names, matching the layout of an existing installation.
const (
	DefaultTreeFile = "directory.json"
	DefaultDatabase = "accountBook.db"
)

// Book is a single session over a branch tree and its ledger. It is not
// safe for concurrent use; front ends serving several clients serialize
// access themselves.
type Book struct {
	treeFile  string
	database  string
	persister tree.Persister
	rows      ledger.Store
	ownsRows  bool
	log       zerolog.Logger

	branches *tree.Store
	engine   *cascade.Engine
}

// Option configures a Book.
type Option func(*Book)

// WithTreeFile sets the file holding the branch tree.
func WithTreeFile(path string) Option {
	return func(b *Book) {
		b.treeFile = path
	}
}

// WithTreePersister replaces the tree file with another persister.
func WithTreePersister(p tree.Persister) Option {
	return func(b *Book) {
		b.persister = p
	}
}

// WithDatabase sets the SQLite ledger database file.
func WithDatabase(path string) Option {
	return func(b *Book) {
		b.database = path
	}
}

// WithLedger uses an already opened ledger instead of the database file.
// The Book does not close it.
func WithLedger(s ledger.Store) Option {
	return func(b *Book) {
		b.rows = s
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Book) {
		b.log = log
	}
}

// Open loads the branch tree and opens the ledger.
func Open(ctx context.Context, opts ...Option) (*Book, error) {
	b := &Book{
		treeFile: DefaultTreeFile,
		database: DefaultDatabase,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	timer := telemetry.StartTimer(ctx, "book.open")
	defer timer.End()

	if b.persister == nil {
		b.persister = tree.NewFile(b.treeFile)
	}
	if b.rows == nil {
		dbTimer := timer.Child("ledger.open " + b.database)
		rows, err := ledger.OpenSQLite(ctx, b.database, ledger.WithLogger(b.log))
		dbTimer.End()
		if err != nil {
			return nil, &branch.PersistenceError{Op: "open", Target: "ledger", Err: err}
		}
		b.rows = rows
		b.ownsRows = true
	}

	b.branches = tree.NewStore(b.persister, tree.WithLogger(b.log))
	loadTimer := timer.Child("tree.load")
	err := b.branches.Load(ctx)
	loadTimer.End()
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	b.engine = cascade.New(b.branches, b.rows, cascade.WithLogger(b.log))
	return b, nil
}

// Close releases the ledger if the Book opened it.
func (b *Book) Close() error {
	if b.ownsRows && b.rows != nil {
		return b.rows.Close()
	}
	return nil
}

// TreeFile returns the tree file path, or "" when a custom persister is used.
func (b *Book) TreeFile() string {
	if f, ok := b.persister.(*tree.File); ok {
		return f.Path()
	}
	return ""
}

// Reload rebuilds the tree from its persisted document.
func (b *Book) Reload(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, "tree.reload")
	defer timer.End()
	return b.branches.Reload(ctx)
}

// Root returns the root branch.
func (b *Book) Root() tree.Branch {
	root, _ := b.branches.Tree().Branch(b.branches.Tree().Root())
	return root
}

// Tree returns the live tree for read-only traversal.
func (b *Book) Tree() *tree.Tree {
	return b.branches.Tree()
}

// Lookup returns the branch at path.
func (b *Book) Lookup(path branch.Path) (tree.Branch, error) {
	return b.branches.Lookup(path)
}

// ResolvePath resolves spec relative to the branch at from.
func (b *Book) ResolvePath(from branch.Path, spec string) (tree.Branch, error) {
	start, err := b.branches.Lookup(from)
	if err != nil {
		return tree.Branch{}, err
	}
	return b.branches.Resolve(start.ID, spec)
}

// ListChildren returns the children of the branch at path in display order.
// Display indices are the 1-based positions in the returned slice.
func (b *Book) ListChildren(path branch.Path) ([]tree.Branch, error) {
	parent, err := b.branches.Lookup(path)
	if err != nil {
		return nil, err
	}
	return b.branches.Children(parent.ID)
}

// CreateBranch adds a child called name under parent.
func (b *Book) CreateBranch(ctx context.Context, parent branch.Path, name string) (tree.Branch, error) {
	timer := telemetry.StartTimer(ctx, "branch.create")
	defer timer.End()

	p, err := b.branches.Lookup(parent)
	if err != nil {
		return tree.Branch{}, err
	}
	return b.engine.Create(ctx, p.ID, name)
}

// RenameBranch renames parent's child oldName to newName together with every
// ledger row recorded under it.
func (b *Book) RenameBranch(ctx context.Context, parent branch.Path, oldName, newName string) (cascade.Renamed, error) {
	timer := telemetry.StartTimer(ctx, "branch.rename")
	defer timer.End()

	p, err := b.branches.Lookup(parent)
	if err != nil {
		return cascade.Renamed{}, err
	}
	return b.engine.Rename(ctx, p.ID, oldName, newName)
}

// DeleteBranch removes parent's child name, its subtree and every ledger row
// recorded under it. This cannot be undone.
func (b *Book) DeleteBranch(ctx context.Context, parent branch.Path, name string) (cascade.Deleted, error) {
	timer := telemetry.StartTimer(ctx, "branch.delete")
	defer timer.End()

	p, err := b.branches.Lookup(parent)
	if err != nil {
		return cascade.Deleted{}, err
	}
	return b.engine.Delete(ctx, p.ID, name)
}

// AggregateSubtree rolls up the rows in rng over the subtree at path.
func (b *Book) AggregateSubtree(ctx context.Context, path branch.Path, rng ledger.DateRange) (*summary.Report, error) {
	timer := telemetry.StartTimer(ctx, "summary.aggregate")
	defer timer.End()

	root, err := b.branches.Lookup(path)
	if err != nil {
		return nil, err
	}
	return summary.Aggregate(ctx, b.rows, b.branches.Tree(), root.ID, rng)
}

// Record inserts a row on the branch at path. The branch must exist.
func (b *Book) Record(ctx context.Context, path branch.Path, e ledger.Entry) (ledger.Row, error) {
	if _, err := b.branches.Lookup(path); err != nil {
		return ledger.Row{}, err
	}
	if e.Date.IsZero() {
		return ledger.Row{}, errors.New("entry needs a date")
	}
	e.Branch = path.String()

	row, err := b.rows.Insert(ctx, e)
	if err != nil {
		return ledger.Row{}, &branch.PersistenceError{Op: "record", Target: "ledger", Err: err}
	}
	b.log.Info().Int64("id", row.ID).Str("branch", row.Branch).Int64("amount", row.Amount).Msg("row recorded")
	return row, nil
}

// BranchRows returns the rows recorded exactly at path, not below it.
func (b *Book) BranchRows(ctx context.Context, path branch.Path, order ledger.Order) ([]ledger.Row, error) {
	if _, err := b.branches.Lookup(path); err != nil {
		return nil, err
	}
	rows, err := b.rows.Rows(ctx, ledger.Query{Branch: path.String(), Order: order})
	if err != nil {
		return nil, &branch.PersistenceError{Op: "rows", Target: "ledger", Err: err}
	}
	return rows, nil
}

// Unrecord deletes a single row.
func (b *Book) Unrecord(ctx context.Context, id int64) error {
	if err := b.rows.Remove(ctx, id); err != nil {
		if errors.Is(err, ledger.ErrRowNotFound) {
			return fmt.Errorf("row %d: %w", id, err)
		}
		return &branch.PersistenceError{Op: "unrecord", Target: "ledger", Err: err}
	}
	b.log.Info().Int64("id", id).Msg("row deleted")
	return nil
}

// ClearBranch deletes every row recorded exactly at path.
func (b *Book) ClearBranch(ctx context.Context, path branch.Path) (int64, error) {
	if _, err := b.branches.Lookup(path); err != nil {
		return 0, err
	}
	n, err := b.rows.RemoveBranch(ctx, path.String())
	if err != nil {
		return 0, &branch.PersistenceError{Op: "clear", Target: "ledger", Err: err}
	}
	b.log.Info().Str("branch", path.String()).Int64("rows", n).Msg("branch rows deleted")
	return n, nil
}

// Statement lists the rows under path in rng by date with running balances.
func (b *Book) Statement(ctx context.Context, path branch.Path, rng ledger.DateRange) (summary.Statement, error) {
	rows, err := b.subtreeRows(ctx, path, rng)
	if err != nil {
		return summary.Statement{}, err
	}
	return summary.NewStatement(rows), nil
}

// Monthly groups the rows under path in rng by month.
func (b *Book) Monthly(ctx context.Context, path branch.Path, rng ledger.DateRange) ([]summary.Month, summary.Flow, error) {
	rows, err := b.subtreeRows(ctx, path, rng)
	if err != nil {
		return nil, summary.Flow{}, err
	}
	months, total := summary.Monthly(rows)
	return months, total, nil
}

func (b *Book) subtreeRows(ctx context.Context, path branch.Path, rng ledger.DateRange) ([]ledger.Row, error) {
	timer := telemetry.StartTimer(ctx, "ledger.rows")
	defer timer.End()

	if _, err := b.branches.Lookup(path); err != nil {
		return nil, err
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	rows, err := b.rows.Rows(ctx, ledger.Query{Branch: path.String(), Subtree: true, Range: rng})
	if err != nil {
		return nil, &branch.PersistenceError{Op: "rows", Target: "ledger", Err: err}
	}
	return rows, nil
}
