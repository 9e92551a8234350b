// Package tree holds the in-memory branch tree and keeps it synchronized with
// its persisted document.
//
// Nodes live in a dense arena and refer to each other by NodeID. A node owns
// its children; the parent id is a lookup reference only. Slots of removed
// nodes are never reused within the lifetime of a Tree, so a stale NodeID
// reports "not found" instead of silently naming a different branch.
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/financetree/branch"
)

// NodeID identifies a node within a Tree and its clones.
type NodeID int

// None is the parent of the root.
const None NodeID = -1

type node struct {
	name     string
	path     branch.Path
	parent   NodeID
	children []NodeID
	live     bool
}

// Tree is an arena of branch nodes rooted at branch.Root.
type Tree struct {
	nodes []node
}

// Branch is a read-only view of a node.
type Branch struct {
	ID       NodeID
	Name     string
	Path     branch.Path
	Parent   NodeID
	Children int
}

// New returns a tree holding only the root.
func New() *Tree {
	return &Tree{nodes: []node{{
		name:   branch.Root,
		path:   branch.RootPath(),
		parent: None,
		live:   true,
	}}}
}

// FromDocument builds a tree from its persisted document. The document must
// hold exactly the root key, and every nested key must be a valid name.
func FromDocument(doc *Document) (*Tree, error) {
	if doc.Len() != 1 {
		return nil, fmt.Errorf("document must have exactly one root key, found %d", doc.Len())
	}
	rootDoc, ok := doc.Get(branch.Root)
	if !ok {
		return nil, fmt.Errorf("document has no %q key", branch.Root)
	}

	t := New()
	if err := t.build(t.Root(), rootDoc); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) build(parent NodeID, doc *Document) error {
	for _, e := range doc.Entries() {
		if err := branch.ValidateName(e.Name); err != nil {
			return fmt.Errorf("%s: %w", t.nodes[parent].path, err)
		}
		id := t.attach(parent, e.Name)
		if err := t.build(id, e.Children); err != nil {
			return err
		}
	}
	return nil
}

// Document returns the persisted form of the tree.
func (t *Tree) Document() *Document {
	root := NewDocument()
	_ = root.Append(branch.Root, t.document(t.Root()))
	return root
}

func (t *Tree) document(id NodeID) *Document {
	doc := NewDocument()
	for _, child := range t.nodes[id].children {
		_ = doc.Append(t.nodes[child].name, t.document(child))
	}
	return doc
}

// Root returns the id of the root node.
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of live nodes including the root.
func (t *Tree) Len() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].live {
			n++
		}
	}
	return n
}

// Branch returns a view of the node with the given id.
func (t *Tree) Branch(id NodeID) (Branch, bool) {
	n, ok := t.node(id)
	if !ok {
		return Branch{}, false
	}
	return Branch{
		ID:       id,
		Name:     n.name,
		Path:     n.path,
		Parent:   n.parent,
		Children: len(n.children),
	}, true
}

// Children returns the child ids of id in display order.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.node(id)
	if !ok {
		return nil
	}
	return slices.Clone(n.children)
}

// Child returns the child of id called name.
func (t *Tree) Child(id NodeID, name string) (NodeID, bool) {
	n, ok := t.node(id)
	if !ok {
		return None, false
	}
	for _, child := range n.children {
		if t.nodes[child].name == name {
			return child, true
		}
	}
	return None, false
}

// Lookup finds the node with the canonical path p.
func (t *Tree) Lookup(p branch.Path) (NodeID, bool) {
	if len(p) == 0 || p[0] != branch.Root {
		return None, false
	}
	cur := t.Root()
	for _, name := range p[1:] {
		next, ok := t.Child(cur, name)
		if !ok {
			return None, false
		}
		cur = next
	}
	return cur, true
}

// Resolve interprets spec relative to start.
//
// Leading ".." segments ascend one level each and stop at the root. Without
// an ascent, a first segment equal to the root name makes spec absolute.
// Each remaining segment is matched against child names first and then as a
// 1-based index into the child order. Empty segments are ignored, so "" and
// "../" are valid specifiers.
func (t *Tree) Resolve(start NodeID, spec string) (NodeID, error) {
	from, ok := t.node(start)
	if !ok {
		return None, &branch.NotFoundError{Spec: spec}
	}

	segments := strings.Split(spec, branch.Separator)
	cur := start
	i := 0
	for ; i < len(segments) && segments[i] == branch.Up; i++ {
		if parent := t.nodes[cur].parent; parent != None {
			cur = parent
		}
	}
	if i == 0 && segments[0] == branch.Root {
		cur = t.Root()
		i = 1
	}

	for _, seg := range segments[i:] {
		if seg == "" {
			continue
		}
		next, ok := t.step(cur, seg)
		if !ok {
			return None, &branch.NotFoundError{From: from.path, Spec: spec}
		}
		cur = next
	}
	return cur, nil
}

func (t *Tree) step(id NodeID, seg string) (NodeID, bool) {
	if child, ok := t.Child(id, seg); ok {
		return child, true
	}
	if strings.Trim(seg, "0123456789") != "" {
		return None, false
	}
	n, err := strconv.Atoi(seg)
	children := t.nodes[id].children
	if err != nil || n < 1 || n > len(children) {
		return None, false
	}
	return children[n-1], true
}

// Walk calls fn for id and every descendant in depth-first pre-order,
// following child order. Depth is relative to id. A non-nil error from fn
// stops the walk.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, depth int) error) error {
	if _, ok := t.node(id); !ok {
		return &branch.NotFoundError{Spec: strconv.Itoa(int(id))}
	}
	return t.walk(id, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) error) error {
	if err := fn(id, depth); err != nil {
		return err
	}
	for _, child := range t.nodes[id].children {
		if err := t.walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with t. Node ids are
// preserved.
func (t *Tree) Clone() *Tree {
	out := &Tree{nodes: make([]node, len(t.nodes))}
	copy(out.nodes, t.nodes)
	for i := range out.nodes {
		out.nodes[i].children = slices.Clone(t.nodes[i].children)
	}
	return out
}

func (t *Tree) node(id NodeID) (*node, bool) {
	if id < 0 || int(id) >= len(t.nodes) || !t.nodes[id].live {
		return nil, false
	}
	return &t.nodes[id], true
}

func (t *Tree) attach(parent NodeID, name string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		name:   name,
		path:   t.nodes[parent].path.Join(name),
		parent: parent,
		live:   true,
	})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

func (t *Tree) add(parent NodeID, name string) (NodeID, error) {
	p, ok := t.node(parent)
	if !ok {
		return None, &branch.NotFoundError{Spec: strconv.Itoa(int(parent))}
	}
	if err := branch.ValidateName(name); err != nil {
		return None, err
	}
	if _, exists := t.Child(parent, name); exists {
		return None, &branch.AlreadyExistsError{Parent: p.path, Name: name}
	}
	return t.attach(parent, name), nil
}

// rename changes the name of parent's child oldName in place, keeping its
// position, and recomputes the path of the whole subtree.
func (t *Tree) rename(parent NodeID, oldName, newName string) (NodeID, error) {
	p, ok := t.node(parent)
	if !ok {
		return None, &branch.NotFoundError{Spec: strconv.Itoa(int(parent))}
	}
	if err := branch.ValidateName(newName); err != nil {
		return None, err
	}
	id, ok := t.Child(parent, oldName)
	if !ok {
		return None, &branch.NotFoundError{From: p.path, Spec: oldName}
	}
	if _, exists := t.Child(parent, newName); exists {
		return None, &branch.AlreadyExistsError{Parent: p.path, Name: newName}
	}

	t.nodes[id].name = newName
	_ = t.walk(id, 0, func(n NodeID, _ int) error {
		t.nodes[n].path = t.nodes[t.nodes[n].parent].path.Join(t.nodes[n].name)
		return nil
	})
	return id, nil
}

// remove detaches parent's child name and frees its whole subtree. It
// returns the removed ids in pre-order.
func (t *Tree) remove(parent NodeID, name string) ([]NodeID, error) {
	p, ok := t.node(parent)
	if !ok {
		return nil, &branch.NotFoundError{Spec: strconv.Itoa(int(parent))}
	}
	id, ok := t.Child(parent, name)
	if !ok {
		return nil, &branch.NotFoundError{From: p.path, Spec: name}
	}

	var removed []NodeID
	_ = t.walk(id, 0, func(n NodeID, _ int) error {
		removed = append(removed, n)
		return nil
	})
	for _, n := range removed {
		t.nodes[n].live = false
		t.nodes[n].children = nil
	}

	i := slices.Index(p.children, id)
	p.children = slices.Delete(p.children, i, i+1)
	return removed, nil
}
