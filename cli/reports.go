package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/robinvdvleuten/financetree/ledger"
	"github.com/robinvdvleuten/financetree/output"
	"github.com/robinvdvleuten/financetree/summary"
)

type TreeCmd struct {
	Period Period `arg:"" optional:"" help:"Date range as FROM~TO; either side may be left out."`
}

func (cmd *TreeCmd) Run(ctx context.Context, s *Session) error {
	report, err := s.Book.AggregateSubtree(ctx, s.Cwd, cmd.Period.DateRange)
	if err != nil {
		return err
	}

	view := output.TreeView{Styles: s.Styles, Scale: s.Scale}
	if err := view.Render(s.Stdout, report); err != nil {
		return err
	}
	if report.Skipped > 0 {
		printWarning(s.Stderr, fmt.Sprintf("%d rows with a malformed branch were not counted", report.Skipped))
	}
	return nil
}

type DailyCmd struct {
	Period Period `arg:"" optional:"" help:"Date range as FROM~TO; either side may be left out."`
}

func (cmd *DailyCmd) Run(ctx context.Context, s *Session) error {
	statement, err := s.Book.Statement(ctx, s.Cwd, cmd.Period.DateRange)
	if err != nil {
		return err
	}

	table := output.NewTable("DATE", "BRANCH", "IN", "OUT", "BALANCE", "DESCRIPTION").
		Align(2, output.AlignRight).
		Align(3, output.AlignRight).
		Align(4, output.AlignRight)
	for _, e := range statement.Entries {
		table.Append(
			e.Row.Date.Format(ledger.DateLayout),
			e.Row.Branch,
			s.flowCell(e.Row.Inflow()),
			s.flowCell(e.Row.Outflow()),
			s.money(e.Balance),
			e.Row.Description,
		)
	}
	if err := table.Render(s.Stdout); err != nil {
		return err
	}
	s.writeTotals(s.Stdout, cmd.Period, statement.Count, statement.Total)
	return nil
}

type MonthlyCmd struct {
	Period Period `arg:"" optional:"" help:"Date range as FROM~TO; either side may be left out."`
}

func (cmd *MonthlyCmd) Run(ctx context.Context, s *Session) error {
	months, total, err := s.Book.Monthly(ctx, s.Cwd, cmd.Period.DateRange)
	if err != nil {
		return err
	}

	table := output.NewTable("MONTHLY", "IN", "OUT", "BALANCE").
		Align(1, output.AlignRight).
		Align(2, output.AlignRight).
		Align(3, output.AlignRight)
	for _, m := range months {
		table.Append(m.Month, s.money(m.Flow.Inflow), s.money(m.Flow.Outflow), s.money(m.Balance))
	}
	if err := table.Render(s.Stdout); err != nil {
		return err
	}
	s.writeTotals(s.Stdout, cmd.Period, len(months), total)
	return nil
}

// flowCell prints zero amounts as "-" so the other column stands out.
func (s *Session) flowCell(amount int64) string {
	if amount == 0 {
		return "-"
	}
	return s.money(amount)
}

func (s *Session) writeTotals(w io.Writer, period Period, count int, total summary.Flow) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, s.Styles.Keyword("*** Summary ***"))
	_, _ = fmt.Fprintf(w, "Branch:    %s\n", s.Styles.Branch(s.Cwd.String()))
	_, _ = fmt.Fprintf(w, "Period:    %s\n", period.Describe())
	_, _ = fmt.Fprintf(w, "Count:     %d\n", count)
	_, _ = fmt.Fprintf(w, "Total In:  %s\n", s.Styles.Inflow(s.money(total.Inflow)))
	_, _ = fmt.Fprintf(w, "Total Out: %s\n", s.Styles.Outflow(s.money(total.Outflow)))
	_, _ = fmt.Fprintf(w, "Balance:   %s\n", s.Styles.Balance(s.money(total.Balance()), total.Balance()))
}
