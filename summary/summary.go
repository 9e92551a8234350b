// Package summary computes inflow, outflow and balance over ledger rows.
//
// Subtree totals are produced in a single pass over the matching rows: each
// row is added to every node on the chain from the queried root down to the
// row's own branch, so a node's totals always include its descendants.
// Amounts are integer minor units; no floating point is involved.
package summary

import (
	"context"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/tree"
)

// Flow holds the inflow and outflow of a set of rows. Outflow is stored as
// a non-negative magnitude.
type Flow struct {
	Inflow  int64 `json:"inflow"`
	Outflow int64 `json:"outflow"`
}

// Add accounts for a single row amount. Positive amounts are inflow;
// zero and negative amounts count towards outflow.
func (f *Flow) Add(amount int64) {
	if amount > 0 {
		f.Inflow += amount
	} else {
		f.Outflow -= amount
	}
}

// Balance returns Inflow - Outflow.
func (f Flow) Balance() int64 {
	return f.Inflow - f.Outflow
}

// Totals maps canonical branch paths to their rolled-up flow.
type Totals map[string]Flow

// Accumulate rolls rows up to every ancestor between root and the row's
// branch, inclusive. Rows outside root or with a malformed branch are not
// counted; their number is returned as skipped.
func Accumulate(root branch.Path, rows []ledger.Row) (totals Totals, skipped int) {
	totals = Totals{}
	for _, r := range rows {
		p, err := branch.Parse(r.Branch)
		if err != nil {
			skipped++
			continue
		}
		chain := p.Chain(root)
		if chain == nil {
			skipped++
			continue
		}
		for _, ancestor := range chain {
			key := ancestor.String()
			f := totals[key]
			f.Add(r.Amount)
			totals[key] = f
		}
	}
	return totals, skipped
}

// Report is the per-branch roll-up of a subtree for a date range.
type Report struct {
	Root  *Node            `json:"root"`
	Range ledger.DateRange `json:"-"`
	// Rows is the number of rows that contributed.
	Rows int `json:"rows"`
	// Skipped is the number of matching rows that could not be placed.
	Skipped int `json:"skipped,omitempty"`
}

// Node is a branch in a Report.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Depth    int     `json:"depth"`
	Flow     Flow    `json:"flow"`
	Balance  int64   `json:"balance"`
	Children []*Node `json:"children,omitempty"`
}

// Build lays totals out over the subtree of t rooted at id, in child order.
// Branches without rows get a zero flow.
func Build(t *tree.Tree, id tree.NodeID, totals Totals) (*Node, error) {
	nodes := map[tree.NodeID]*Node{}
	var root *Node

	err := t.Walk(id, func(n tree.NodeID, depth int) error {
		b, _ := t.Branch(n)
		flow := totals[b.Path.String()]
		node := &Node{
			Name:    b.Name,
			Path:    b.Path.String(),
			Depth:   depth,
			Flow:    flow,
			Balance: flow.Balance(),
		}
		nodes[n] = node
		if depth == 0 {
			root = node
			return nil
		}
		parent := nodes[b.Parent]
		parent.Children = append(parent.Children, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Aggregate reports the subtree of t rooted at id over the rows recorded in
// rng. An empty result is a valid report with zero flows.
func Aggregate(ctx context.Context, rows ledger.Reader, t *tree.Tree, id tree.NodeID, rng ledger.DateRange) (*Report, error) {
	b, ok := t.Branch(id)
	if !ok {
		return nil, &branch.NotFoundError{Spec: "aggregate root"}
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	matched, err := rows.Rows(ctx, ledger.Query{Branch: b.Path.String(), Subtree: true, Range: rng})
	if err != nil {
		return nil, &branch.PersistenceError{Op: "aggregate", Target: "ledger", Err: err}
	}

	totals, skipped := Accumulate(b.Path, matched)
	root, err := Build(t, id, totals)
	if err != nil {
		return nil, err
	}
	return &Report{Root: root, Range: rng, Rows: len(matched) - skipped, Skipped: skipped}, nil
}

// Walk visits the report's nodes depth-first in pre-order.
func (r *Report) Walk(fn func(n *Node)) {
	var walk func(n *Node)
	walk = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	if r.Root != nil {
		walk(r.Root)
	}
}
