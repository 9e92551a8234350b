// Package cascade applies structural branch changes across the three places
// a branch lives: the in-memory tree, its persisted document and the ledger
// rows recorded under its path.
//
// Each operation either takes full effect or has no effect. Tree changes are
// prepared on a tree.Stage; ledger changes run inside a ledger transaction;
// the staged tree is committed from within that transaction so a failed save
// rolls the ledger back. If the ledger commit itself fails after the tree
// was saved, the previous tree is written back. When that also fails the
// error is an InconsistentStateError.
package cascade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/tree"
)

// Engine performs create, rename and delete.
type Engine struct {
	branches *tree.Store
	rows     ledger.Store
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Each operation logs with an "op" id field.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New returns an engine over a loaded tree store and a ledger.
func New(branches *tree.Store, rows ledger.Store, opts ...Option) *Engine {
	e := &Engine{
		branches: branches,
		rows:     rows,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Renamed describes a completed rename.
type Renamed struct {
	Branch tree.Branch
	From   branch.Path
	To     branch.Path
	// Branches is the number of nodes whose path changed.
	Branches int
	// Rows is the number of ledger rows moved to the new path.
	Rows int64
}

// Deleted describes a completed delete.
type Deleted struct {
	Path branch.Path
	// Branches is the number of nodes removed, including Path itself.
	Branches int
	// Rows is the number of ledger rows removed.
	Rows int64
}

// Create adds a child called name under parent.
func (e *Engine) Create(ctx context.Context, parent tree.NodeID, name string) (tree.Branch, error) {
	log := e.logger("create")

	b, err := e.branches.Create(ctx, parent, name)
	if err != nil {
		log.Debug().Err(err).Str("name", name).Msg("create rejected")
		return tree.Branch{}, err
	}

	log.Info().Str("path", b.Path.String()).Msg("branch created")
	return b, nil
}

// Rename renames parent's child oldName to newName, moving every ledger row
// recorded at or below the old path.
func (e *Engine) Rename(ctx context.Context, parent tree.NodeID, oldName, newName string) (Renamed, error) {
	log := e.logger("rename")

	previous, err := e.branches.Stage()
	if err != nil {
		return Renamed{}, err
	}
	staged, err := e.branches.Stage()
	if err != nil {
		return Renamed{}, err
	}

	id, err := staged.Rename(parent, oldName, newName)
	if err != nil {
		log.Debug().Err(err).Str("from", oldName).Str("to", newName).Msg("rename rejected")
		return Renamed{}, err
	}

	renamed, _ := staged.Tree().Branch(id)
	from := renamed.Path.Parent().Join(oldName)
	to := renamed.Path
	descendants := 0
	_ = staged.Tree().Walk(id, func(tree.NodeID, int) error {
		descendants++
		return nil
	})

	var moved int64
	err = e.apply(ctx, log, "rename", staged, previous, func(w ledger.Writer) (err error) {
		moved, err = w.MoveUnder(ctx, from.String(), to.String())
		return err
	})
	if err != nil {
		return Renamed{}, err
	}

	log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Int("branches", descendants).
		Int64("rows", moved).
		Msg("branch renamed")

	return Renamed{Branch: renamed, From: from, To: to, Branches: descendants, Rows: moved}, nil
}

// Delete removes parent's child name with its whole subtree and every ledger
// row recorded at or below its path. Callers are expected to confirm with
// the user first.
func (e *Engine) Delete(ctx context.Context, parent tree.NodeID, name string) (Deleted, error) {
	log := e.logger("delete")

	previous, err := e.branches.Stage()
	if err != nil {
		return Deleted{}, err
	}
	target, ok := previous.Tree().Child(parent, name)
	if !ok {
		p, _ := previous.Tree().Branch(parent)
		return Deleted{}, &branch.NotFoundError{From: p.Path, Spec: name}
	}
	doomed, _ := previous.Tree().Branch(target)

	staged, err := e.branches.Stage()
	if err != nil {
		return Deleted{}, err
	}
	removed, err := staged.Remove(parent, name)
	if err != nil {
		return Deleted{}, err
	}

	var deleted int64
	err = e.apply(ctx, log, "delete", staged, previous, func(w ledger.Writer) (err error) {
		deleted, err = w.DeleteUnder(ctx, doomed.Path.String())
		return err
	})
	if err != nil {
		return Deleted{}, err
	}

	log.Info().
		Str("path", doomed.Path.String()).
		Int("branches", len(removed)).
		Int64("rows", deleted).
		Msg("branch deleted")

	return Deleted{Path: doomed.Path, Branches: len(removed), Rows: deleted}, nil
}

// apply runs the ledger step and the tree commit as one unit. previous is a
// snapshot of the tree taken before staging, used to undo a committed tree
// when the ledger commit fails.
func (e *Engine) apply(ctx context.Context, log zerolog.Logger, op string, staged, previous *tree.Stage, ledgerStep func(ledger.Writer) error) error {
	treeCommitted := false

	err := e.rows.Update(ctx, func(w ledger.Writer) error {
		if err := ledgerStep(w); err != nil {
			return &branch.PersistenceError{Op: op, Target: "ledger", Err: err}
		}
		if err := e.branches.Commit(ctx, staged); err != nil {
			return err
		}
		treeCommitted = true
		return nil
	})
	if err == nil {
		return nil
	}

	if !treeCommitted {
		log.Warn().Err(err).Msg("rolled back")
		if branch.KindOf(err) == branch.KindUnknown {
			err = &branch.PersistenceError{Op: op, Target: "ledger", Err: err}
		}
		return err
	}

	// The ledger transaction failed to commit after the tree was saved.
	cause := &branch.PersistenceError{Op: op, Target: "ledger", Err: err}
	if rerr := e.branches.Commit(ctx, previous); rerr != nil {
		log.Error().Err(err).AnErr("rollback", rerr).Msg("tree and ledger are inconsistent")
		return &branch.InconsistentStateError{Op: op, Step: "ledger commit", Cause: cause, Err: rerr}
	}
	log.Warn().Err(err).Msg("ledger commit failed, restored previous tree")
	return cause
}

func (e *Engine) logger(op string) zerolog.Logger {
	return e.log.With().Str("op", uuid.NewString()).Str("operation", op).Logger()
}

// String is used in log and error output.
func (r Renamed) String() string {
	return fmt.Sprintf("%s -> %s (%d branches, %d rows)", r.From, r.To, r.Branches, r.Rows)
}

// String is used in log and error output.
func (d Deleted) String() string {
	return fmt.Sprintf("%s (%d branches, %d rows)", d.Path, d.Branches, d.Rows)
}
