// Package output formats amounts, tables and branch trees for the terminal.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles colors terminal output. Colors are dropped automatically when the
// writer is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles returns styles for w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

func (s *Styles) color(text, code string, bold bool) string {
	st := s.output.String(text).Foreground(s.output.Color(code))
	if bold {
		st = st.Bold()
	}
	return st.String()
}

// Success returns text in bold green.
func (s *Styles) Success(text string) string {
	return s.color(text, "2", true)
}

// Error returns text in bold red.
func (s *Styles) Error(text string) string {
	return s.color(text, "1", true)
}

// Warning returns text in bold yellow.
func (s *Styles) Warning(text string) string {
	return s.color(text, "3", true)
}

// FilePath returns text in cyan.
func (s *Styles) FilePath(text string) string {
	return s.color(text, "6", false)
}

// Branch returns a branch name or path in yellow.
func (s *Styles) Branch(text string) string {
	return s.color(text, "3", false)
}

// Inflow returns an inflow amount in green.
func (s *Styles) Inflow(text string) string {
	return s.color(text, "2", false)
}

// Outflow returns an outflow amount in red.
func (s *Styles) Outflow(text string) string {
	return s.color(text, "1", false)
}

// Balance colors a balance by its sign.
func (s *Styles) Balance(text string, amount int64) string {
	if amount < 0 {
		return s.Outflow(text)
	}
	return s.Amount(text)
}

// Amount returns a neutral amount in magenta.
func (s *Styles) Amount(text string) string {
	return s.color(text, "5", false)
}

// Keyword returns text in bold.
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns faint text for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Output returns the underlying termenv output.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
