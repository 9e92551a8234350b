package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/financetree/config"
	"github.com/robinvdvleuten/financetree/finance"
	"github.com/robinvdvleuten/financetree/logging"
	"github.com/robinvdvleuten/financetree/output"
	"github.com/robinvdvleuten/financetree/telemetry"
)

// Execute parses args, runs the selected command and returns the process
// exit code. Errors are rendered to stderr.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	renderer := NewErrorRenderer(true)

	v, err := config.Load(config.ConfigFlag(args))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		return ExitFailure
	}

	var cli struct {
		Version kong.VersionFlag `help:"Show version information"`
		Commands
	}

	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Vars{
			"version": BuildVersion(),
		},
		kong.Name("financetree"),
		kong.Description("Organize transactions under a tree of branches and report rolled-up totals."),
		kong.UsageOnError(),
		kong.Resolvers(config.Resolver(v)),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		return ExitFailure
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version already printed their output.
		return exitCode
	}
	if err != nil {
		var parseErr *kong.ParseError
		if stderrors.As(err, &parseErr) {
			_ = parseErr.Context.PrintUsage(true)
			_, _ = fmt.Fprintln(stderr)
		}
		_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		return ExitFailure
	}

	g := cli.Globals
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		return ExitFailure
	}
	log := logging.New(stderr, level, logging.Format(g.LogFormat))
	ctx = logging.WithContext(ctx, log)

	if g.Telemetry {
		collector := telemetry.NewTimingCollector()
		ctx = telemetry.WithCollector(ctx, collector)

		name := "financetree"
		if fields := strings.Fields(kctx.Command()); len(fields) > 0 {
			name += " " + fields[0]
		}
		root := collector.Start(name)
		defer func() {
			root.End()
			_, _ = fmt.Fprintln(stderr)
			collector.Report(stderr, output.NewStyles(stderr))
		}()
	}

	book, err := finance.Open(ctx,
		finance.WithTreeFile(g.TreeFile),
		finance.WithDatabase(g.Database),
		finance.WithLogger(log),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		return ExitCode(err)
	}
	defer func() {
		if err := book.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ledger")
		}
	}()

	session, err := NewSession(book, g.At, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		return ExitCode(err)
	}
	session.Stdin = stdin
	session.Scale = g.Scale
	session.Yes = g.Yes
	session.Log = log

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(session); err != nil {
		var cmdErr *CommandError
		if !stderrors.As(err, &cmdErr) {
			_, _ = fmt.Fprintln(stderr, renderer.Render(err))
		}
		return ExitCode(err)
	}
	return ExitOK
}

// BuildVersion formats Version and CommitSHA for --version.
func BuildVersion() string {
	version := Version
	if version == "" {
		version = "dev"
	}
	if CommitSHA == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, CommitSHA)
}
