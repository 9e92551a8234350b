package cli

import (
	"strings"

	"github.com/robinvdvleuten/financetree/errors"
)

// ErrorRenderer renders errors with terminal styling and a hint.
type ErrorRenderer struct {
	formatter *errors.TextFormatter
}

// NewErrorRenderer creates a renderer. Hints can be turned off for terse
// output such as the shell's.
func NewErrorRenderer(hints bool) *ErrorRenderer {
	return &ErrorRenderer{formatter: errors.NewTextFormatter(errors.WithHints(hints))}
}

// Render formats a single error: the message in error style, the details
// and hint below it dimmed.
func (r *ErrorRenderer) Render(err error) string {
	if err == nil {
		return ""
	}
	text := r.formatter.Format(err)
	head, rest, found := strings.Cut(text, "\n\n")

	var buf strings.Builder
	buf.WriteString(errorStyle.Render(errorSymbol + " " + head))
	if found {
		buf.WriteString("\n\n")
		buf.WriteString(hintStyle.Render(rest))
	}
	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, r.Render(err))
	}
	return strings.Join(parts, "\n\n")
}
