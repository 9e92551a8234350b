package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/finance"
	"github.com/robinvdvleuten/financetree/ledger"
)

type testSession struct {
	*Session
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	// answers are returned by Confirm in order; an exhausted list answers no.
	answers []bool
	asked   []string
}

func newTestSession(t *testing.T) *testSession {
	t.Helper()
	book, err := finance.Open(context.Background(),
		finance.WithTreeFile(filepath.Join(t.TempDir(), finance.DefaultTreeFile)),
		finance.WithLedger(ledger.NewMemoryStore()),
	)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })

	ts := &testSession{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	ts.Session, err = NewSession(book, "", ts.stdout, ts.stderr)
	assert.NoError(t, err)
	ts.now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.Local) }
	ts.confirm = func(question string) (bool, error) {
		ts.asked = append(ts.asked, question)
		if len(ts.answers) == 0 {
			return false, nil
		}
		answer := ts.answers[0]
		ts.answers = ts.answers[1:]
		return answer, nil
	}
	return ts
}

func (ts *testSession) run(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		assert.NoError(t, ts.exec(context.Background(), line), "line %q", line)
	}
}

func (ts *testSession) output() string {
	out := ts.stdout.String()
	ts.stdout.Reset()
	return out
}

func TestBranchCommands(t *testing.T) {
	ts := newTestSession(t)

	ts.run(t, "ls")
	assert.Contains(t, ts.output(), "(no branches)")

	ts.run(t, "mkdir Food Rent", "ls")
	out := ts.output()
	assert.Contains(t, out, "1. Food")
	assert.Contains(t, out, "2. Rent")

	t.Run("CdByIndex", func(t *testing.T) {
		ts.run(t, "cd 1")
		assert.Equal(t, "HOME/Food", ts.Cwd.String())
		ts.run(t, "md Snacks", "cd ..")
		assert.Equal(t, "HOME", ts.Cwd.String())
		ts.run(t, "cd HOME/Food/Snacks", "cd")
		assert.Equal(t, "HOME", ts.Cwd.String())
		ts.run(t, "cd Food", "cd -")
		assert.Equal(t, "HOME", ts.Cwd.String())
	})

	t.Run("LsPath", func(t *testing.T) {
		ts.output()
		ts.run(t, "ls Food")
		assert.Equal(t, "1. Snacks\n", ts.output())
	})

	t.Run("Errors", func(t *testing.T) {
		err := ts.exec(context.Background(), "mkdir Food")
		assert.IsError(t, err, branch.ErrAlreadyExists)

		err = ts.exec(context.Background(), "mkdir a/b")
		assert.IsError(t, err, branch.ErrInvalidName)

		err = ts.exec(context.Background(), "cd Nowhere")
		assert.IsError(t, err, branch.ErrNotFound)

		err = ts.exec(context.Background(), "rmdir HOME")
		assert.Error(t, err)
	})

	t.Run("MvRebasesWorkingBranch", func(t *testing.T) {
		ts.run(t, "cd Food/Snacks", "mv HOME/Food Groceries")
		assert.Equal(t, "HOME/Groceries/Snacks", ts.Cwd.String())
		assert.Contains(t, ts.output(), "Renamed HOME/Food to HOME/Groceries")
	})

	t.Run("RmdirDeclined", func(t *testing.T) {
		ts.run(t, "cd HOME", "rmdir 2")
		assert.Equal(t, []string{"Delete HOME/Rent?"}, ts.asked)
		assert.Contains(t, ts.output(), "Nothing deleted")
		_, err := ts.Book.Lookup(branch.MustParse("HOME/Rent"))
		assert.NoError(t, err)
	})

	t.Run("RmdirMovesWorkingBranchUp", func(t *testing.T) {
		ts.answers = []bool{true}
		ts.run(t, "cd Groceries/Snacks", "rmdir HOME/Groceries")
		assert.Equal(t, "HOME", ts.Cwd.String())
		assert.Contains(t, ts.output(), "Deleted HOME/Groceries (2 branches, 0 rows)")
		assert.Contains(t, ts.stderr.String(), "removes every branch below it")
	})
}

func TestRowCommands(t *testing.T) {
	ts := newTestSession(t)
	ts.run(t,
		"mkdir Food",
		"cd Food",
		"insert --date 2024-01-15 -- -200 lunch with friends",
		"insert -d 2024-01-10 500 refund",
		"insert -- -30",
	)
	out := ts.output()
	assert.Contains(t, out, "Recorded -200 on 2024-01-15 at HOME/Food")
	assert.Contains(t, out, "Recorded -30 on 2024-03-09 at HOME/Food")

	t.Run("ListByCreated", func(t *testing.T) {
		ts.run(t, "delete")
		lines := strings.Split(ts.output(), "\n")
		assert.Contains(t, lines[3], "lunch with friends")
		assert.Contains(t, lines[4], "refund")
	})

	t.Run("ListByDate", func(t *testing.T) {
		ts.run(t, "delete --by-date")
		lines := strings.Split(ts.output(), "\n")
		assert.Contains(t, lines[3], "refund")
		assert.Contains(t, lines[4], "lunch with friends")
	})

	t.Run("DeleteOne", func(t *testing.T) {
		ts.answers = []bool{true}
		ts.run(t, "delete 1")
		assert.Contains(t, ts.output(), "Deleted row 1")

		rows, err := ts.Book.BranchRows(context.Background(), ts.Cwd, ledger.ByCreated)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(rows))
		assert.Equal(t, "refund", rows[0].Description)
	})

	t.Run("DeleteOutOfRange", func(t *testing.T) {
		err := ts.exec(context.Background(), "delete 9")
		assert.EqualError(t, err, "no row number 9 on HOME/Food: 2 rows")
	})

	t.Run("BadInput", func(t *testing.T) {
		assert.Error(t, ts.exec(context.Background(), "insert --date yesterday 5"))
		assert.Error(t, ts.exec(context.Background(), "insert five"))
		assert.Error(t, ts.exec(context.Background(), "delete --all 1"))
	})

	t.Run("DeleteAll", func(t *testing.T) {
		ts.answers = []bool{true}
		ts.run(t, "delete --all")
		assert.Contains(t, ts.output(), "Deleted 2 rows from HOME/Food")
		ts.run(t, "delete")
		assert.Contains(t, ts.output(), "(no rows)")
	})
}

func TestReportCommands(t *testing.T) {
	ts := newTestSession(t)
	ts.run(t,
		"mkdir Food FoodTruck",
		"cd Food",
		"mkdir Snacks",
		"insert -d 2024-01-10 500 salary share",
		"cd Snacks",
		"insert -d 2024-01-15 -- -200 chips",
		"cd ../../FoodTruck",
		"insert -d 2024-02-01 -- -999 lookalike",
		"cd HOME",
	)
	ts.output()

	t.Run("Tree", func(t *testing.T) {
		ts.run(t, "cd Food", "tree")
		assert.Equal(t, ""+
			"|-- Food[IN:500, OUT:200, BAL:300]\n"+
			"|    |-- Snacks[IN:0, OUT:200, BAL:-200]\n",
			ts.output())
	})

	t.Run("TreePeriod", func(t *testing.T) {
		ts.run(t, "tree 2024-01-11~")
		assert.Contains(t, ts.output(), "|-- Food[IN:0, OUT:200, BAL:-200]")
	})

	t.Run("Daily", func(t *testing.T) {
		ts.run(t, "daily")
		out := ts.output()
		assert.Contains(t, out, "2024-01-10")
		assert.Contains(t, out, "HOME/Food/Snacks")
		assert.NotContains(t, out, "lookalike")
		assert.Contains(t, out, "*** Summary ***")
		assert.Contains(t, out, "Period:    all")
		assert.Contains(t, out, "Count:     2")
		assert.Contains(t, out, "Balance:   300")
	})

	t.Run("DailyPeriod", func(t *testing.T) {
		ts.run(t, "daily 2024-01-01~2024-01-12")
		out := ts.output()
		assert.Contains(t, out, "Period:    2024-01-01 ~ 2024-01-12")
		assert.Contains(t, out, "Count:     1")
	})

	t.Run("Monthly", func(t *testing.T) {
		ts.run(t, "cd HOME", "monthly")
		out := ts.output()
		assert.Contains(t, out, "2024-01")
		assert.Contains(t, out, "2024-02")
		assert.Contains(t, out, "Total Out: 1,199")
		assert.Contains(t, out, "Balance:   -699")
	})

	t.Run("InvalidPeriod", func(t *testing.T) {
		assert.Error(t, ts.exec(context.Background(), "daily 2024-02-01~2024-01-01"))
		assert.Error(t, ts.exec(context.Background(), "monthly soon"))
	})
}

func TestPeriod(t *testing.T) {
	parse := func(args ...string) (Period, error) {
		var cli struct {
			Period Period `arg:"" optional:""`
		}
		parser := kong.Must(&cli, kong.Exit(func(int) {}))
		_, err := parser.Parse(args)
		return cli.Period, err
	}

	p, err := parse()
	assert.NoError(t, err)
	assert.Equal(t, "all", p.Describe())

	p, err = parse("~2024-01-31")
	assert.NoError(t, err)
	assert.True(t, p.From.IsZero())
	assert.Equal(t, ledger.Date(2024, 1, 31), p.To)

	p, err = parse("20240105")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-05 ~ 2024-01-05", p.Describe())

	_, err = parse("2024-13-01~")
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	ts := newTestSession(t)
	ts.Scale = 2
	ts.run(t, "insert -d 2024-01-01 1,234.5 deposit", "tree")
	out := ts.output()
	assert.Contains(t, out, "Recorded 1,234.50")
	assert.Contains(t, out, "|-- HOME[IN:1,234.50, OUT:0.00, BAL:1,234.50]")

	rows, err := ts.Book.BranchRows(context.Background(), ts.Cwd, ledger.ByDate)
	assert.NoError(t, err)
	assert.Equal(t, int64(123450), rows[0].Amount)
}

func TestNewSessionAt(t *testing.T) {
	ts := newTestSession(t)
	ts.run(t, "mkdir Food")

	s, err := NewSession(ts.Book, "HOME/Food", ts.stdout, ts.stderr)
	assert.NoError(t, err)
	assert.Equal(t, "HOME/Food", s.Cwd.String())

	_, err = NewSession(ts.Book, "HOME/Rent", ts.stdout, ts.stderr)
	assert.IsError(t, err, branch.ErrNotFound)
}
