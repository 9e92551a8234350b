package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/financetree/branch"
)

// Persister reads and writes the tree document.
type Persister interface {
	// Load returns the stored document. A missing document is reported with
	// an error matching fs.ErrNotExist.
	Load(ctx context.Context) (*Document, error)

	// Save replaces the stored document.
	Save(ctx context.Context, doc *Document) error
}

// Store owns the live tree and its document and keeps them in lockstep with
// the persister. Mutations are prepared on a Stage and only become visible
// once Commit has saved the staged document.
//
// A Store is not safe for concurrent use.
type Store struct {
	persister Persister
	log       zerolog.Logger

	tree *Tree
	doc  *Document
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and commit events.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore returns a store backed by p. Call Load before use.
func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errNotLoaded = errors.New("tree store not loaded")

// Load builds the live tree from the persisted document. When no document
// exists, a root-only document is written first.
func (s *Store) Load(ctx context.Context) error {
	doc, err := s.persister.Load(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		doc = DefaultDocument()
		if err := s.persister.Save(ctx, doc); err != nil {
			return &branch.PersistenceError{Op: "load", Target: "tree", Err: err}
		}
		s.log.Info().Msg("created empty tree document")
	case err != nil:
		return &branch.PersistenceError{Op: "load", Target: "tree", Err: err}
	}

	t, err := FromDocument(doc)
	if err != nil {
		return &branch.PersistenceError{Op: "load", Target: "tree", Err: err}
	}

	s.tree, s.doc = t, doc
	s.log.Debug().Int("branches", t.Len()).Msg("tree loaded")
	return nil
}

// Reload replaces the live tree with the persisted document, for example
// after the file was edited by hand. Unlike Load, a missing document is an
// error and the live tree stays as it was on any failure.
func (s *Store) Reload(ctx context.Context) error {
	doc, err := s.persister.Load(ctx)
	if err != nil {
		return &branch.PersistenceError{Op: "reload", Target: "tree", Err: err}
	}
	t, err := FromDocument(doc)
	if err != nil {
		return &branch.PersistenceError{Op: "reload", Target: "tree", Err: err}
	}
	s.tree, s.doc = t, doc
	s.log.Info().Int("branches", t.Len()).Msg("tree reloaded")
	return nil
}

// Loaded reports whether Load has succeeded at least once.
func (s *Store) Loaded() bool {
	return s.tree != nil
}

// Tree returns the live tree. It must be treated as read-only and is
// replaced, not modified, by each commit.
func (s *Store) Tree() *Tree {
	return s.tree
}

// Document returns a copy of the live document.
func (s *Store) Document() *Document {
	if s.doc == nil {
		return nil
	}
	return s.doc.Clone()
}

// Resolve resolves spec relative to start.
func (s *Store) Resolve(start NodeID, spec string) (Branch, error) {
	if s.tree == nil {
		return Branch{}, errNotLoaded
	}
	id, err := s.tree.Resolve(start, spec)
	if err != nil {
		return Branch{}, err
	}
	b, _ := s.tree.Branch(id)
	return b, nil
}

// Lookup returns the branch with the canonical path p.
func (s *Store) Lookup(p branch.Path) (Branch, error) {
	if s.tree == nil {
		return Branch{}, errNotLoaded
	}
	id, ok := s.tree.Lookup(p)
	if !ok {
		return Branch{}, &branch.NotFoundError{Spec: p.String()}
	}
	b, _ := s.tree.Branch(id)
	return b, nil
}

// Children returns the children of id in display order.
func (s *Store) Children(id NodeID) ([]Branch, error) {
	if s.tree == nil {
		return nil, errNotLoaded
	}
	if _, ok := s.tree.Branch(id); !ok {
		return nil, &branch.NotFoundError{Spec: fmt.Sprint(id)}
	}
	ids := s.tree.Children(id)
	out := make([]Branch, 0, len(ids))
	for _, child := range ids {
		b, _ := s.tree.Branch(child)
		out = append(out, b)
	}
	return out, nil
}

// Create adds a child called name under parent and persists the document.
// On a save failure the live tree is left unchanged.
func (s *Store) Create(ctx context.Context, parent NodeID, name string) (Branch, error) {
	st, err := s.Stage()
	if err != nil {
		return Branch{}, err
	}
	id, err := st.Add(parent, name)
	if err != nil {
		return Branch{}, err
	}
	if err := s.Commit(ctx, st); err != nil {
		return Branch{}, err
	}
	b, _ := s.tree.Branch(id)
	return b, nil
}

// Stage returns a private copy of the live tree and document to mutate.
func (s *Store) Stage() (*Stage, error) {
	if s.tree == nil {
		return nil, errNotLoaded
	}
	return &Stage{tree: s.tree.Clone(), doc: s.doc.Clone()}, nil
}

// Commit saves the staged document and, once saved, makes the staged tree
// live. If the save fails nothing changes.
func (s *Store) Commit(ctx context.Context, st *Stage) error {
	if err := s.persister.Save(ctx, st.doc); err != nil {
		s.log.Warn().Err(err).Msg("tree commit failed, keeping previous tree")
		return &branch.PersistenceError{Op: "save", Target: "tree", Err: err}
	}
	s.tree, s.doc = st.tree, st.doc
	return nil
}

// Stage is a copy of the tree and document that is mutated in lockstep.
// Errors leave a stage in an undefined state; discard it.
type Stage struct {
	tree *Tree
	doc  *Document
}

// Tree returns the staged tree.
func (st *Stage) Tree() *Tree {
	return st.tree
}

// Add appends a child called name under parent.
func (st *Stage) Add(parent NodeID, name string) (NodeID, error) {
	id, err := st.tree.add(parent, name)
	if err != nil {
		return None, err
	}
	at, err := st.docAt(parent)
	if err != nil {
		return None, err
	}
	if err := at.Append(name, NewDocument()); err != nil {
		return None, err
	}
	return id, nil
}

// Rename renames parent's child oldName to newName, keeping its position
// among its siblings. The paths of the whole subtree are recomputed.
func (st *Stage) Rename(parent NodeID, oldName, newName string) (NodeID, error) {
	id, err := st.tree.rename(parent, oldName, newName)
	if err != nil {
		return None, err
	}
	at, err := st.docAt(parent)
	if err != nil {
		return None, err
	}
	if err := at.Rename(oldName, newName); err != nil {
		return None, err
	}
	return id, nil
}

// Remove deletes parent's child name together with its subtree and returns
// the removed ids in pre-order.
func (st *Stage) Remove(parent NodeID, name string) ([]NodeID, error) {
	at, err := st.docAt(parent)
	if err != nil {
		return nil, err
	}
	removed, err := st.tree.remove(parent, name)
	if err != nil {
		return nil, err
	}
	if _, err := at.Remove(name); err != nil {
		return nil, err
	}
	return removed, nil
}

// docAt must be called while parent is still live.
func (st *Stage) docAt(parent NodeID) (*Document, error) {
	p := st.tree.nodes[parent].path
	at, ok := st.doc.At(p)
	if !ok {
		return nil, fmt.Errorf("document has no entry for %s", p)
	}
	return at, nil
}
