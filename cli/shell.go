package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-shellwords"
)

// Prompt is printed before every shell line, with the working branch filled in.
const Prompt = "$Finance_Tree[%s]>> "

// shellCommands is the grammar of a single shell line.
type shellCommands struct {
	Cd      CdCmd      `cmd:"" aliases:"chdir" help:"Change the working branch."`
	Ls      LsCmd      `cmd:"" aliases:"list" help:"List the child branches of a branch."`
	Mkdir   MkdirCmd   `cmd:"" aliases:"md" help:"Create child branches."`
	Rmdir   RmdirCmd   `cmd:"" aliases:"rd" help:"Delete a branch, its subtree and all its rows."`
	Mv      MvCmd      `cmd:"" aliases:"move" help:"Rename a branch and move its rows along."`
	Tree    TreeCmd    `cmd:"" help:"Show in, out and balance for every branch below the working branch."`
	Daily   DailyCmd   `cmd:"" help:"List the rows below the working branch with a running balance."`
	Monthly MonthlyCmd `cmd:"" help:"Summarize the rows below the working branch by month."`
	Insert  InsertCmd  `cmd:"" aliases:"in" help:"Record a row on the working branch."`
	Delete  DeleteCmd  `cmd:"" aliases:"del" help:"Delete rows recorded on the working branch."`
	Help    HelpCmd    `cmd:"" aliases:"?" help:"List the shell commands."`
}

type ShellCmd struct{}

// Run reads commands until q!, exit or end of input. A failing command is
// reported and the shell carries on.
func (cmd *ShellCmd) Run(ctx context.Context, s *Session) error {
	in := bufio.NewReader(s.Stdin)
	if s.confirm == nil {
		s.confirm = lineConfirm(in, s.Stdout)
	}
	renderer := NewErrorRenderer(true)

	for {
		_, _ = fmt.Fprintf(s.Stdout, Prompt, s.Cwd)
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			_, _ = fmt.Fprintln(s.Stdout)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "q!", "Q!", "exit":
			return nil
		}

		if err := s.exec(ctx, line); err != nil {
			s.Log.Debug().Err(err).Str("line", line).Msg("shell command failed")
			_, _ = fmt.Fprintln(s.Stderr, renderer.Render(err))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// exec parses and runs a single shell line.
func (s *Session) exec(ctx context.Context, line string) error {
	args, err := splitLine(line)
	if err != nil {
		return err
	}

	var cmds shellCommands
	parser, err := kong.New(&cmds,
		kong.Name("financetree"),
		kong.Writers(s.Stdout, s.Stderr),
		kong.Exit(func(int) {}),
		kong.NoDefaultHelp(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(s)
}

type HelpCmd struct{}

func (cmd *HelpCmd) Run(s *Session, kctx *kong.Context) error {
	type entry struct{ names, help string }
	var entries []entry
	width := 0
	for _, node := range kctx.Model.Node.Children {
		if node.Hidden {
			continue
		}
		names := strings.Join(append([]string{node.Name}, node.Aliases...), ", ")
		width = max(width, len(names))
		entries = append(entries, entry{names: names, help: node.Help})
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(s.Stdout, "  %-*s  %s\n", width, e.names, e.help)
	}
	_, _ = fmt.Fprintf(s.Stdout, "  %-*s  %s\n", width, "q!, exit", "Leave the shell.")
	return nil
}

// splitLine splits a shell line into words with shell quoting rules.
// Pipes, redirects and command separators are not supported and must be
// quoted.
func splitLine(line string) ([]string, error) {
	p := shellwords.NewParser()
	words, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("cannot split line: %w", err)
	}
	if p.Position >= 0 {
		return nil, errors.New("cannot split line: ; & | < and > must be quoted")
	}
	return words, nil
}
