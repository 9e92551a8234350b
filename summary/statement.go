package summary

import (
	"github.com/robinvdvleuten/financetree/ledger"
)

// MonthLayout formats the month key of monthly summaries.
const MonthLayout = "2006-01"

// Statement lists rows with a running balance.
type Statement struct {
	Entries []StatementEntry `json:"entries"`
	Total   Flow             `json:"total"`
	Count   int              `json:"count"`
}

// StatementEntry is a row together with the balance after it.
type StatementEntry struct {
	Row     ledger.Row `json:"row"`
	Balance int64      `json:"balance"`
}

// NewStatement computes running balances over rows in their given order.
func NewStatement(rows []ledger.Row) Statement {
	s := Statement{Entries: make([]StatementEntry, 0, len(rows))}
	for _, r := range rows {
		s.Total.Add(r.Amount)
		s.Entries = append(s.Entries, StatementEntry{Row: r, Balance: s.Total.Balance()})
	}
	s.Count = len(rows)
	return s
}

// Month is the flow of a calendar month with the balance accumulated up to
// and including it.
type Month struct {
	Month   string `json:"month"`
	Flow    Flow   `json:"flow"`
	Balance int64  `json:"balance"`
}

// Monthly groups rows by month. rows must be ordered by date; months without
// rows are omitted.
func Monthly(rows []ledger.Row) (months []Month, total Flow) {
	for _, r := range rows {
		key := r.Date.Format(MonthLayout)
		if len(months) == 0 || months[len(months)-1].Month != key {
			months = append(months, Month{Month: key})
		}
		m := &months[len(months)-1]
		m.Flow.Add(r.Amount)
		total.Add(r.Amount)
		m.Balance = total.Balance()
	}
	return months, total
}
