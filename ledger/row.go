// Package ledger stores transaction rows keyed by branch path.
//
// Rows reference branches only by their canonical path string; nothing in
// the store enforces that the branch exists. Bulk operations select rows by
// a segment-respecting path prefix, so rows under "HOME/FoodTruck" are never
// touched by an operation on "HOME/Food".
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and display format of transaction dates.
const DateLayout = "2006-01-02"

// Row is a recorded transaction.
type Row struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Branch      string    `json:"branch"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Inflow returns the amount when positive, otherwise zero.
func (r Row) Inflow() int64 {
	if r.Amount > 0 {
		return r.Amount
	}
	return 0
}

// Outflow returns the absolute amount when non-positive, otherwise zero.
func (r Row) Outflow() int64 {
	if r.Amount <= 0 {
		return -r.Amount
	}
	return 0
}

// Entry is a row to be inserted. ID and creation time are assigned by the
// store.
type Entry struct {
	Date        time.Time
	Branch      string
	Amount      int64
	Description string
}

// Date returns the calendar date y-m-d at midnight UTC.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var inputLayouts = []string{DateLayout, "2006/01/02", "20060102"}

// ParseDate parses a calendar date written as 2024-01-10, 2024/01/10 or
// 20240110.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// ParseRange parses "from~to" where either side may be empty. A string
// without "~" is a single day.
func ParseRange(s string) (DateRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unbounded, nil
	}
	from, to, found := strings.Cut(s, "~")
	if !found {
		to = from
	}

	var (
		r   DateRange
		err error
	)
	if strings.TrimSpace(from) != "" {
		if r.From, err = ParseDate(from); err != nil {
			return DateRange{}, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = ParseDate(to); err != nil {
			return DateRange{}, err
		}
	}
	return r, r.Validate()
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// DateRange is an inclusive interval of calendar dates. A zero bound leaves
// that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Unbounded is the range covering every date.
var Unbounded = DateRange{}

// Contains reports whether the calendar date of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	if !r.From.IsZero() && d.Before(Day(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(Day(r.To)) {
		return false
	}
	return true
}

// Validate rejects ranges whose start lies after their end.
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && Day(r.From).After(Day(r.To)) {
		return fmt.Errorf("invalid date range: %s is after %s",
			r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	return nil
}

// String formats the range as "from ~ to" with open bounds shown as "..".
func (r DateRange) String() string {
	from, to := "..", ".."
	if !r.From.IsZero() {
		from = r.From.Format(DateLayout)
	}
	if !r.To.IsZero() {
		to = r.To.Format(DateLayout)
	}
	return from + " ~ " + to
}

// Order selects the sort order of query results.
type Order int

const (
	// ByDate orders by transaction date, then insertion order.
	ByDate Order = iota
	// ByCreated orders by insertion order, then transaction date.
	ByCreated
)

// Query selects rows.
type Query struct {
	// Branch is the canonical branch path to match.
	Branch string
	// Subtree also matches rows below Branch.
	Subtree bool
	Range   DateRange
	Order   Order
}

func (q Query) validate() error {
	if q.Branch == "" {
		return errors.New("query needs a branch")
	}
	return q.Range.Validate()
}

// ErrRowNotFound is returned by Remove when no row has the given id.
var ErrRowNotFound = errors.New("no such row")
