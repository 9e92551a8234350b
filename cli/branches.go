package cli

import (
	"context"
	"fmt"

	"github.com/robinvdvleuten/financetree/branch"
)

type LsCmd struct {
	Path string `arg:"" optional:"" help:"Branch to list (name, number or path). Defaults to the working branch."`
}

func (cmd *LsCmd) Run(ctx context.Context, s *Session) error {
	target := s.Cwd
	if cmd.Path != "" {
		b, err := s.resolve(cmd.Path)
		if err != nil {
			return err
		}
		target = b.Path
	}

	children, err := s.Book.ListChildren(target)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		_, _ = fmt.Fprintln(s.Stdout, s.Styles.Dim("(no branches)"))
		return nil
	}
	for i, c := range children {
		_, _ = fmt.Fprintf(s.Stdout, "%d. %s\n", i+1, s.Styles.Branch(c.Name))
	}
	return nil
}

// CdCmd changes the working branch. It only exists in the shell.
type CdCmd struct {
	Path string `arg:"" optional:"" help:"Branch to change to (name, number, .., or path). Defaults to HOME."`
}

func (cmd *CdCmd) Run(ctx context.Context, s *Session) error {
	if cmd.Path == "" || cmd.Path == "-" {
		s.Cwd = branch.RootPath()
		return nil
	}
	b, err := s.resolve(cmd.Path)
	if err != nil {
		return err
	}
	s.Cwd = b.Path
	return nil
}

type MkdirCmd struct {
	Names []string `arg:"" help:"Names of the branches to create under the working branch."`
}

func (cmd *MkdirCmd) Run(ctx context.Context, s *Session) error {
	for _, name := range cmd.Names {
		created, err := s.Book.CreateBranch(ctx, s.Cwd, name)
		if err != nil {
			return err
		}
		printSuccess(s.Stdout, fmt.Sprintf("Created %s", pathStyle.Render(created.Path.String())))
	}
	return nil
}

type RmdirCmd struct {
	Branch string `arg:"" help:"Branch to delete (name, number or path)."`
}

func (cmd *RmdirCmd) Run(ctx context.Context, s *Session) error {
	target, err := s.child(cmd.Branch)
	if err != nil {
		return err
	}

	printWarning(s.Stderr, fmt.Sprintf("Deleting %s removes every branch below it and all of their rows.",
		pathStyle.Render(target.Path.String())))
	ok, err := s.Confirm(fmt.Sprintf("Delete %s?", target.Path))
	if err != nil {
		return err
	}
	if !ok {
		printInfof(s.Stdout, "Nothing deleted")
		return nil
	}

	deleted, err := s.Book.DeleteBranch(ctx, target.Path.Parent(), target.Name)
	if err != nil {
		return err
	}
	if s.Cwd.HasPrefix(deleted.Path) {
		s.Cwd = deleted.Path.Parent()
	}
	printSuccess(s.Stdout, fmt.Sprintf("Deleted %s (%d branches, %d rows)",
		pathStyle.Render(deleted.Path.String()), deleted.Branches, deleted.Rows))
	return nil
}

type MvCmd struct {
	From string `arg:"" help:"Branch to rename (name, number or path)."`
	To   string `arg:"" help:"New name."`
}

func (cmd *MvCmd) Run(ctx context.Context, s *Session) error {
	source, err := s.child(cmd.From)
	if err != nil {
		return err
	}

	renamed, err := s.Book.RenameBranch(ctx, source.Path.Parent(), source.Name, cmd.To)
	if err != nil {
		return err
	}
	if moved, ok := s.Cwd.Rebase(renamed.From, renamed.To); ok {
		s.Cwd = moved
	}
	printSuccess(s.Stdout, fmt.Sprintf("Renamed %s to %s (%d branches, %d rows)",
		pathStyle.Render(renamed.From.String()), pathStyle.Render(renamed.To.String()),
		renamed.Branches, renamed.Rows))
	return nil
}
