// Package errors renders branch and ledger errors for people and programs.
// Error types live with the code that returns them; this package only
// decides how they are presented.
//
//   - TextFormatter writes a message followed by an indented hint, for the CLI
//   - JSONFormatter writes a kind-tagged object, for the web API
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/robinvdvleuten/financetree/branch"
)

// Formatter formats errors for output.
type Formatter interface {
	Format(err error) string
	FormatAll(errs []error) string
}

// TextFormatter formats errors for terminal output.
type TextFormatter struct {
	hints bool
}

// TextFormatterOption configures a TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithHints appends a suggested next step below each message.
func WithHints(enabled bool) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.hints = enabled
	}
}

// NewTextFormatter returns a text formatter. Hints are on by default.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{hints: true}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format renders err and, when known, a hint for its kind.
func (tf *TextFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var buf bytes.Buffer
	buf.WriteString(err.Error())

	var inconsistent *branch.InconsistentStateError
	if stderrors.As(err, &inconsistent) {
		buf.WriteString("\n\n")
		fmt.Fprintf(&buf, "   operation: %s\n", inconsistent.Op)
		fmt.Fprintf(&buf, "   failed at: %s\n", inconsistent.Step)
		fmt.Fprintf(&buf, "   cause:     %v\n", inconsistent.Cause)
		fmt.Fprintf(&buf, "   rollback:  %v", inconsistent.Err)
	}

	if tf.hints {
		if hint := Hint(branch.KindOf(err)); hint != "" {
			buf.WriteString("\n\n   ")
			buf.WriteString(hint)
		}
	}
	return buf.String()
}

// FormatAll formats errs separated by blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, tf.Format(err))
	}
	return strings.Join(parts, "\n\n")
}

// Hint returns a suggested next step for an error kind.
func Hint(kind branch.Kind) string {
	switch kind {
	case branch.KindInvalidName:
		return "Branch names may not be empty, HOME, \".\" or \"..\", or contain " + branch.Forbidden
	case branch.KindAlreadyExists:
		return "Pick another name or rename the existing branch first."
	case branch.KindNotFound:
		return "Use ls to list the branches here, by name or by number."
	case branch.KindPersistence:
		return "Nothing was changed. Check that the tree file and database are writable."
	case branch.KindInconsistentState:
		return "The tree file and the database disagree. Restore both from a backup before continuing."
	default:
		return ""
	}
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter returns a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON is the JSON form of an error.
type ErrorJSON struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Path    string            `json:"path,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Format formats a single error as a JSON object.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.ToJSON(err))
	return string(data)
}

// FormatAll formats errs as an indented JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	out := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		out = append(out, jf.ToJSON(err))
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

// ToJSON converts err to its JSON form.
func (jf *JSONFormatter) ToJSON(err error) ErrorJSON {
	e := ErrorJSON{
		Kind:    branch.KindOf(err).String(),
		Message: err.Error(),
	}

	var withPath interface{ GetPath() branch.Path }
	if stderrors.As(err, &withPath) {
		e.Path = withPath.GetPath().String()
	}

	details := map[string]string{}
	var withName interface{ GetName() string }
	if stderrors.As(err, &withName) {
		details["name"] = withName.GetName()
	}
	var persistence *branch.PersistenceError
	if stderrors.As(err, &persistence) {
		details["op"] = persistence.Op
		details["target"] = persistence.Target
	}
	var inconsistent *branch.InconsistentStateError
	if stderrors.As(err, &inconsistent) {
		details["op"] = inconsistent.Op
		details["step"] = inconsistent.Step
	}
	if len(details) > 0 {
		e.Details = details
	}
	return e
}
