package cli

import (
	"context"

	"github.com/robinvdvleuten/financetree/web"
)

type ServeCmd struct {
	Host     string `help:"Address to bind. Only bind to localhost; the API has no authentication." default:"127.0.0.1"`
	Port     int    `help:"Port to listen on." default:"8080"`
	ReadOnly bool   `help:"Enable read-only mode (no write operations allowed)." short:"r"`
	Watch    bool   `help:"Reload the branch tree when its file changes on disk." short:"w"`
}

func (cmd *ServeCmd) Run(ctx context.Context, s *Session) error {
	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.New(s.Book, cmd.Port,
		web.WithLogger(s.Log),
		web.WithVersion(version, commitSHA),
	)
	server.Host = cmd.Host
	server.ReadOnly = cmd.ReadOnly
	server.WatchEnabled = cmd.Watch

	printInfof(s.Stdout, "Starting server on %s:%d", server.Host, server.Port)
	if file := s.Book.TreeFile(); file != "" {
		printInfof(s.Stdout, "Serving branch tree: %s", pathStyle.Render(file))
	}
	if cmd.ReadOnly {
		printInfof(s.Stdout, "Server running in READ-ONLY mode")
	}
	if cmd.Host != "127.0.0.1" && cmd.Host != "localhost" {
		printWarning(s.Stderr, "The API has no authentication; it is reachable from other machines.")
	}

	return server.Start(ctx)
}
