package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/financetree/branch"
	"github.com/robinvdvleuten/financetree/finance"
	"github.com/robinvdvleuten/financetree/output"
	"github.com/robinvdvleuten/financetree/tree"
)

// Session is the state shared by the commands of one invocation or one
// shell: the open book, the working branch and the terminal.
type Session struct {
	Book   *finance.Book
	Cwd    branch.Path
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Styles *output.Styles
	Scale  int32
	Yes    bool
	Log    zerolog.Logger

	// confirm answers yes/no questions. Nil falls back to a terminal prompt.
	confirm func(question string) (bool, error)
	now     func() time.Time
}

// NewSession opens a session on book with the working branch at.
func NewSession(book *finance.Book, at string, stdout, stderr io.Writer) (*Session, error) {
	s := &Session{
		Book:   book,
		Cwd:    branch.RootPath(),
		Stdin:  os.Stdin,
		Stdout: stdout,
		Stderr: stderr,
		Styles: output.NewStyles(stdout),
		Log:    zerolog.Nop(),
		now:    time.Now,
	}
	if at != "" && at != branch.Root {
		b, err := book.ResolvePath(s.Cwd, at)
		if err != nil {
			return nil, err
		}
		s.Cwd = b.Path
	}
	return s, nil
}

// Confirm asks question unless --yes was given.
func (s *Session) Confirm(question string) (bool, error) {
	if s.Yes {
		return true, nil
	}
	if s.confirm != nil {
		return s.confirm(question)
	}
	return promptYesNo(s.Stdin, question)
}

// lineConfirm answers questions from a line reader, as the shell does.
func lineConfirm(in *bufio.Reader, out io.Writer) func(string) (bool, error) {
	return func(question string) (bool, error) {
		_, _ = fmt.Fprintf(out, "%s (y/N) ", question)
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// resolve resolves spec relative to the working branch.
func (s *Session) resolve(spec string) (tree.Branch, error) {
	return s.Book.ResolvePath(s.Cwd, spec)
}

// child resolves spec to a branch that can be renamed or deleted, which
// rules out the root.
func (s *Session) child(spec string) (tree.Branch, error) {
	b, err := s.resolve(spec)
	if err != nil {
		return tree.Branch{}, err
	}
	if b.Path.IsRoot() {
		return tree.Branch{}, fmt.Errorf("%s cannot be renamed or removed", branch.Root)
	}
	return b, nil
}

func (s *Session) money(amount int64) string {
	return output.Money(amount, s.Scale)
}

// today returns the local calendar date.
func (s *Session) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
