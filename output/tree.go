package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/robinvdvleuten/financetree/summary"
)

// TreeView renders a summary report as an indented branch tree with the
// rolled-up flow of each branch:
//
//	|-- HOME[IN:500, OUT:200, BAL:300]
//	|    |-- Food[IN:500, OUT:200, BAL:300]
type TreeView struct {
	Styles *Styles
	Scale  int32
}

// Render writes report to w.
func (v TreeView) Render(w io.Writer, report *summary.Report) error {
	var b strings.Builder
	report.Walk(func(n *summary.Node) {
		in := Money(n.Flow.Inflow, v.Scale)
		out := Money(n.Flow.Outflow, v.Scale)
		bal := Money(n.Balance, v.Scale)
		name := n.Name
		if v.Styles != nil {
			in = v.Styles.Inflow(in)
			out = v.Styles.Outflow(out)
			bal = v.Styles.Balance(bal, n.Balance)
			name = v.Styles.Branch(name)
		}
		fmt.Fprintf(&b, "%s|-- %s[IN:%s, OUT:%s, BAL:%s]\n", strings.Repeat("|    ", n.Depth), name, in, out, bal)
	})
	_, err := io.WriteString(w, b.String())
	return err
}
