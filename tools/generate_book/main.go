// Large Book Generator
//
// This tool generates a branch tree and a ledger database with many rows for
// performance testing and profiling of the subtree aggregation.
//
// Usage:
//
//	go run main.go ./large             # directory.json and accountBook.db in ./large
//	go run main.go ./large 2000000     # Specify the number of rows
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/finance"
	"github.com/robinvdvleuten/financetree/ledger"
)

const (
	defaultRowCount = 200_000
)

var (
	branches = []string{
		"Income/Salary",
		"Income/Bonus",
		"Income/Investments/Dividends",
		"Income/Investments/Interest",
		"Expenses/Food/Groceries",
		"Expenses/Food/Restaurant",
		"Expenses/Food/Snacks",
		"Expenses/FoodTruck",
		"Expenses/Housing/Rent",
		"Expenses/Housing/Utilities",
		"Expenses/Transport/Gas",
		"Expenses/Transport/Transit",
		"Expenses/Shopping/Clothing",
		"Expenses/Shopping/Electronics",
		"Expenses/Entertainment/Movies",
		"Expenses/Entertainment/Concerts",
		"Expenses/Healthcare/Medical",
		"Expenses/Healthcare/Dental",
		"Expenses/Taxes",
		"Savings/Emergency",
		"Savings/Holiday",
		"가계부/식비",
	}

	narrations = []string{
		"Grocery shopping", "Fuel purchase", "Rent payment",
		"Salary deposit", "Utility bill", "Online purchase",
		"Restaurant dinner", "Coffee", "Monthly subscription",
		"Medical appointment", "Dividend payment", "Gift",
	}
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: generate_book DIR [ROWS]")
		os.Exit(2)
	}
	dir := os.Args[1]
	rowCount := defaultRowCount
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil {
			rowCount = n
		}
	}

	if err := generate(context.Background(), dir, rowCount); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(ctx context.Context, dir string, rowCount int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	book, err := finance.Open(ctx,
		finance.WithTreeFile(filepath.Join(dir, finance.DefaultTreeFile)),
		finance.WithDatabase(filepath.Join(dir, finance.DefaultDatabase)),
	)
	if err != nil {
		return err
	}
	defer book.Close()

	leaves := make([]branch.Path, 0, len(branches))
	for _, spec := range branches {
		p, err := ensure(ctx, book, spec)
		if err != nil {
			return err
		}
		leaves = append(leaves, p)
	}

	start := time.Now()
	date := ledger.Date(2020, 1, 1)
	for i := 0; i < rowCount; i++ {
		leaf := leaves[rand.Intn(len(leaves))]
		if _, err := book.Record(ctx, leaf, ledger.Entry{
			Date:        date,
			Amount:      randAmount(leaf),
			Description: narrations[rand.Intn(len(narrations))],
		}); err != nil {
			return err
		}
		// Advance the date every few rows
		if rand.Intn(20) == 0 {
			date = date.AddDate(0, 0, 1)
		}
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d branches and %d rows in %s\n",
		book.Tree().Len(), rowCount, time.Since(start).Round(time.Millisecond))
	return nil
}

// ensure creates every missing branch along spec, relative to HOME.
func ensure(ctx context.Context, book *finance.Book, spec string) (branch.Path, error) {
	at := branch.RootPath()
	for _, name := range strings.Split(spec, branch.Separator) {
		next := at.Join(name)
		if _, err := book.Lookup(next); err != nil {
			if _, err := book.CreateBranch(ctx, at, name); err != nil {
				return nil, err
			}
		}
		at = next
	}
	return at, nil
}

// randAmount returns income for Income branches and spending elsewhere, in
// minor units.
func randAmount(leaf branch.Path) int64 {
	amount := int64(rand.Intn(50_000) + 100)
	if leaf[1] == "Income" {
		return amount
	}
	return -amount
}
