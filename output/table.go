package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Align is the horizontal alignment of a table column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows as a bordered grid. Widths are measured in terminal
// cells, so wide characters such as Hangul line up.
type Table struct {
	headers []string
	align   []Align
	rows    [][]string
}

// NewTable returns a table with the given column headers, all left aligned.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, align: make([]Align, len(headers))}
}

// Align sets the alignment of column i.
func (t *Table) Align(i int, a Align) *Table {
	if i >= 0 && i < len(t.align) {
		t.align[i] = a
	}
	return t
}

// Append adds a row. Missing cells are blank; extra cells are dropped.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w.
//
//	+------------+-------+
//	| DATE       |    IN |
//	+------------+-------+
//	| 2024-01-10 |   500 |
//	+------------+-------+
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	rule := t.rule(widths)
	b.WriteString(rule)
	t.line(&b, widths, t.headers, false)
	b.WriteString(rule)
	for _, row := range t.rows {
		t.line(&b, widths, row, true)
	}
	if len(t.rows) > 0 {
		b.WriteString(rule)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Table) rule(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func (t *Table) line(b *strings.Builder, widths []int, cells []string, aligned bool) {
	b.WriteByte('|')
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell))
		if aligned && t.align[i] == AlignRight {
			fmt.Fprintf(b, " %s%s |", pad, cell)
		} else {
			fmt.Fprintf(b, " %s%s |", cell, pad)
		}
	}
	b.WriteByte('\n')
}
