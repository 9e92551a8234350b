package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/output"
)

type InsertCmd struct {
	Date        string   `help:"Transaction date (YYYY-MM-DD). Defaults to today." short:"d" placeholder:"DATE"`
	Amount      string   `arg:"" help:"Signed amount; positive is income, negative is spending. Use -- before a negative amount."`
	Description []string `arg:"" optional:"" help:"Description of the row."`
}

func (cmd *InsertCmd) Run(ctx context.Context, s *Session) error {
	date := s.today()
	if cmd.Date != "" {
		d, err := ledger.ParseDate(cmd.Date)
		if err != nil {
			return err
		}
		date = d
	}

	amount, err := output.ParseMoney(cmd.Amount, s.Scale)
	if err != nil {
		return err
	}

	row, err := s.Book.Record(ctx, s.Cwd, ledger.Entry{
		Date:        date,
		Amount:      amount,
		Description: strings.Join(cmd.Description, " "),
	})
	if err != nil {
		return err
	}
	printSuccess(s.Stdout, fmt.Sprintf("Recorded %s on %s at %s",
		s.Styles.Balance(s.money(row.Amount), row.Amount),
		row.Date.Format(ledger.DateLayout),
		pathStyle.Render(row.Branch)))
	return nil
}

type DeleteCmd struct {
	Number int  `arg:"" optional:"" help:"Number of the row to delete, as listed without arguments."`
	ByDate bool `help:"Number rows by transaction date instead of entry order."`
	All    bool `help:"Delete every row recorded on the working branch."`
}

func (cmd *DeleteCmd) Run(ctx context.Context, s *Session) error {
	if cmd.All && cmd.Number != 0 {
		return errors.New("--all cannot be combined with a row number")
	}

	if cmd.All {
		ok, err := s.Confirm(fmt.Sprintf("Delete all rows recorded on %s?", s.Cwd))
		if err != nil {
			return err
		}
		if !ok {
			printInfof(s.Stdout, "Nothing deleted")
			return nil
		}
		n, err := s.Book.ClearBranch(ctx, s.Cwd)
		if err != nil {
			return err
		}
		printSuccess(s.Stdout, fmt.Sprintf("Deleted %d rows from %s", n, pathStyle.Render(s.Cwd.String())))
		return nil
	}

	order := ledger.ByCreated
	if cmd.ByDate {
		order = ledger.ByDate
	}
	rows, err := s.Book.BranchRows(ctx, s.Cwd, order)
	if err != nil {
		return err
	}

	if cmd.Number == 0 {
		if len(rows) == 0 {
			_, _ = fmt.Fprintln(s.Stdout, s.Styles.Dim("(no rows)"))
			return nil
		}
		return s.rowTable(rows).Render(s.Stdout)
	}

	if cmd.Number < 1 || cmd.Number > len(rows) {
		return fmt.Errorf("no row number %d on %s: %d rows", cmd.Number, s.Cwd, len(rows))
	}
	row := rows[cmd.Number-1]
	if err := s.rowTable([]ledger.Row{row}).Render(s.Stdout); err != nil {
		return err
	}
	ok, err := s.Confirm("Delete this row?")
	if err != nil {
		return err
	}
	if !ok {
		printInfof(s.Stdout, "Nothing deleted")
		return nil
	}
	if err := s.Book.Unrecord(ctx, row.ID); err != nil {
		return err
	}
	printSuccess(s.Stdout, "Deleted row "+strconv.Itoa(cmd.Number))
	return nil
}

func (s *Session) rowTable(rows []ledger.Row) *output.Table {
	table := output.NewTable("NUMBER", "CREATED", "DATE", "BRANCH", "AMOUNT", "DESCRIPTION").
		Align(0, output.AlignRight).
		Align(4, output.AlignRight)
	for i, r := range rows {
		table.Append(
			strconv.Itoa(i+1),
			r.CreatedAt.Local().Format(time.DateTime),
			r.Date.Format(ledger.DateLayout),
			r.Branch,
			s.money(r.Amount),
			r.Description,
		)
	}
	return table
}
