package telemetry

import (
	"fmt"
	"io"
	"time"
)

// SlowThreshold marks operations highlighted in reports.
const SlowThreshold = 100 * time.Millisecond

// writeTree prints the spans as an indented tree:
//
//	financetree mv: 12ms
//	├─ book.open: 4ms
//	│  └─ tree.load: 1ms
//	└─ branch.rename: 7ms
func writeTree(w io.Writer, root *span, styles Styler) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration()))

	for i, child := range root.children {
		writeSpan(w, child, "", i == len(root.children)-1, styles)
	}
}

func writeSpan(w io.Writer, s *span, prefix string, last bool, styles Styler) {
	connector, extension := "├─ ", "│  "
	if last {
		connector, extension = "└─ ", "   "
	}

	d := formatDuration(s.duration())
	lead := prefix + connector
	if styles != nil {
		lead = styles.Dim(lead)
		if s.duration() >= SlowThreshold {
			d = styles.Warning(d)
		} else {
			d = styles.Dim(d)
		}
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s\n", lead, s.name, d)

	for i, child := range s.children {
		writeSpan(w, child, prefix+extension, i == len(s.children)-1, styles)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
