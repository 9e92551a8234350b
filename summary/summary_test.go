package summary

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/tree"
)

func mustTree(t *testing.T, input string) *tree.Tree {
	t.Helper()
	var doc tree.Document
	assert.NoError(t, json.Unmarshal([]byte(input), &doc))
	tr, err := tree.FromDocument(&doc)
	assert.NoError(t, err)
	return tr
}

func insert(t *testing.T, s ledger.Store, entries ...ledger.Entry) {
	t.Helper()
	for _, e := range entries {
		_, err := s.Insert(context.Background(), e)
		assert.NoError(t, err)
	}
}

func flows(r *Report) map[string]Flow {
	out := map[string]Flow{}
	r.Walk(func(n *Node) {
		out[n.Path] = n.Flow
	})
	return out
}

func TestFlow(t *testing.T) {
	var f Flow
	f.Add(500)
	f.Add(-200)
	f.Add(0)
	assert.Equal(t, Flow{Inflow: 500, Outflow: 200}, f)
	assert.Equal(t, int64(300), f.Balance())
}

func TestAggregateScenario(t *testing.T) {
	ctx := context.Background()
	tr := mustTree(t, `{"HOME":{"Food":{"Snacks":{}}}}`)
	rows := ledger.NewMemoryStore()
	insert(t, rows,
		ledger.Entry{Date: ledger.Date(2024, 1, 10), Branch: "HOME/Food", Amount: 500},
		ledger.Entry{Date: ledger.Date(2024, 1, 15), Branch: "HOME/Food/Snacks", Amount: -200},
	)

	report, err := Aggregate(ctx, rows, tr, tr.Root(), ledger.Unbounded)
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Rows)

	got := flows(report)
	assert.Equal(t, Flow{Inflow: 500, Outflow: 200}, got["HOME"])
	assert.Equal(t, Flow{Inflow: 500, Outflow: 200}, got["HOME/Food"])
	assert.Equal(t, Flow{Inflow: 0, Outflow: 200}, got["HOME/Food/Snacks"])

	assert.Equal(t, int64(300), report.Root.Balance)
	assert.Equal(t, int64(300), report.Root.Children[0].Balance)
	assert.Equal(t, int64(-200), report.Root.Children[0].Children[0].Balance)

	t.Run("SubtreeRoot", func(t *testing.T) {
		food, _ := tr.Lookup(branch.MustParse("HOME/Food"))
		report, err := Aggregate(ctx, rows, tr, food, ledger.Unbounded)
		assert.NoError(t, err)
		assert.Equal(t, "HOME/Food", report.Root.Path)
		assert.Equal(t, 0, report.Root.Depth)
		assert.Equal(t, 1, report.Root.Children[0].Depth)
		assert.Equal(t, int64(300), report.Root.Balance)
	})

	t.Run("DateRange", func(t *testing.T) {
		report, err := Aggregate(ctx, rows, tr, tr.Root(), ledger.DateRange{From: ledger.Date(2024, 1, 11)})
		assert.NoError(t, err)
		got := flows(report)
		assert.Equal(t, Flow{Outflow: 200}, got["HOME"])
		assert.Equal(t, Flow{Outflow: 200}, got["HOME/Food/Snacks"])
	})

	t.Run("EmptyIsValid", func(t *testing.T) {
		report, err := Aggregate(ctx, rows, tr, tr.Root(), ledger.DateRange{To: ledger.Date(2023, 12, 31)})
		assert.NoError(t, err)
		assert.Equal(t, 0, report.Rows)
		report.Walk(func(n *Node) {
			assert.Equal(t, Flow{}, n.Flow)
		})
	})

	t.Run("InvalidRange", func(t *testing.T) {
		_, err := Aggregate(ctx, rows, tr, tr.Root(), ledger.DateRange{From: ledger.Date(2024, 2, 1), To: ledger.Date(2024, 1, 1)})
		assert.Error(t, err)
	})
}

func TestAggregateIgnoresLookalikeSiblings(t *testing.T) {
	ctx := context.Background()
	tr := mustTree(t, `{"HOME":{"Food":{},"FoodTruck":{}}}`)
	rows := ledger.NewMemoryStore()
	insert(t, rows,
		ledger.Entry{Date: ledger.Date(2024, 1, 1), Branch: "HOME/Food", Amount: -10},
		ledger.Entry{Date: ledger.Date(2024, 1, 1), Branch: "HOME/FoodTruck", Amount: -99},
	)

	food, _ := tr.Lookup(branch.MustParse("HOME/Food"))
	report, err := Aggregate(ctx, rows, tr, food, ledger.Unbounded)
	assert.NoError(t, err)
	assert.Equal(t, Flow{Outflow: 10}, report.Root.Flow)
}

func TestAccumulateSkipsMalformed(t *testing.T) {
	rows := []ledger.Row{
		{Branch: "HOME/Food", Amount: 5},
		{Branch: "Food", Amount: 7},
		{Branch: "HOME//Food", Amount: 9},
		{Branch: "HOME/Rent", Amount: 11},
	}
	totals, skipped := Accumulate(branch.MustParse("HOME/Food"), rows)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, Totals{"HOME/Food": {Inflow: 5}}, totals)
}

// Every node's roll-up must equal an independent scan over the rows below it.
func TestAggregateMatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	tr := mustTree(t, `{"HOME":{
		"Food":{"Snacks":{"Chips":{}},"Drinks":{}},
		"FoodTruck":{},
		"Rent":{},
		"Work":{"Salary":{},"Bonus":{"Q1":{},"Q2":{}}}
	}}`)

	var paths []string
	assert.NoError(t, tr.Walk(tr.Root(), func(id tree.NodeID, _ int) error {
		b, _ := tr.Branch(id)
		paths = append(paths, b.Path.String())
		return nil
	}))

	rng := rand.New(rand.NewSource(42))
	rows := ledger.NewMemoryStore()
	start := ledger.Date(2024, 1, 1)
	for i := 0; i < 500; i++ {
		insert(t, rows, ledger.Entry{
			Date:   start.AddDate(0, 0, rng.Intn(120)),
			Branch: paths[rng.Intn(len(paths))],
			Amount: rng.Int63n(20000) - 10000,
		})
	}

	all, err := rows.Rows(ctx, ledger.Query{Branch: branch.Root, Subtree: true})
	assert.NoError(t, err)

	ranges := []ledger.DateRange{
		ledger.Unbounded,
		{From: ledger.Date(2024, 2, 1)},
		{To: ledger.Date(2024, 2, 15)},
		{From: ledger.Date(2024, 2, 10), To: ledger.Date(2024, 3, 10)},
	}

	for _, dr := range ranges {
		t.Run(dr.String(), func(t *testing.T) {
			for _, root := range paths {
				id, _ := tr.Lookup(branch.MustParse(root))
				report, err := Aggregate(ctx, rows, tr, id, dr)
				assert.NoError(t, err)

				report.Walk(func(n *Node) {
					var want Flow
					for _, r := range all {
						if branch.Within(r.Branch, n.Path) && dr.Contains(r.Date) {
							if r.Amount > 0 {
								want.Inflow += r.Amount
							} else {
								want.Outflow += -r.Amount
							}
						}
					}
					assert.Equal(t, want, n.Flow, "root %s node %s", root, n.Path)
					assert.Equal(t, want.Inflow-want.Outflow, n.Balance)
				})
			}
		})
	}
}

func TestStatement(t *testing.T) {
	rows := []ledger.Row{
		{ID: 1, Date: ledger.Date(2024, 1, 5), Amount: 1000},
		{ID: 2, Date: ledger.Date(2024, 1, 6), Amount: -300},
		{ID: 3, Date: ledger.Date(2024, 1, 7), Amount: 0},
		{ID: 4, Date: ledger.Date(2024, 1, 9), Amount: -900},
	}

	s := NewStatement(rows)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, Flow{Inflow: 1000, Outflow: 1200}, s.Total)

	var balances []int64
	for _, e := range s.Entries {
		balances = append(balances, e.Balance)
	}
	assert.Equal(t, []int64{1000, 700, 700, -200}, balances)

	empty := NewStatement(nil)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, 0, len(empty.Entries))
}

func TestMonthly(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return ledger.Date(y, m, d) }
	rows := []ledger.Row{
		{Date: day(2024, 1, 5), Amount: 1000},
		{Date: day(2024, 1, 20), Amount: -300},
		{Date: day(2024, 3, 1), Amount: -200},
		{Date: day(2024, 3, 2), Amount: 50},
		{Date: day(2025, 1, 1), Amount: -1000},
	}

	months, total := Monthly(rows)
	assert.Equal(t, []Month{
		{Month: "2024-01", Flow: Flow{Inflow: 1000, Outflow: 300}, Balance: 700},
		{Month: "2024-03", Flow: Flow{Inflow: 50, Outflow: 200}, Balance: 550},
		{Month: "2025-01", Flow: Flow{Outflow: 1000}, Balance: -450},
	}, months)
	assert.Equal(t, Flow{Inflow: 1050, Outflow: 1500}, total)
}
