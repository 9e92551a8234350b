package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Config    string `help:"Config file (financetree.toml)." type:"path" placeholder:"FILE"`
	TreeFile  string `help:"Branch tree file." default:"directory.json" type:"path" placeholder:"FILE"`
	Database  string `help:"Ledger database file." default:"accountBook.db" type:"path" placeholder:"FILE"`
	At        string `help:"Working branch." default:"HOME" placeholder:"PATH"`
	Scale     int32  `help:"Number of minor-unit digits when displaying and entering amounts." default:"0"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"warn" enum:"debug,info,warn,error"`
	LogFormat string `help:"Log format (auto, console, json)." default:"auto" enum:"auto,console,json"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Yes       bool   `help:"Answer yes to confirmation prompts." short:"y"`
}

// Commands are the top-level commands. Each runs against the working branch
// given by --at.
type Commands struct {
	Globals

	Ls      LsCmd      `cmd:"" aliases:"list" help:"List the child branches of a branch."`
	Mkdir   MkdirCmd   `cmd:"" aliases:"md" help:"Create child branches."`
	Rmdir   RmdirCmd   `cmd:"" aliases:"rd" help:"Delete a branch, its subtree and all its rows."`
	Mv      MvCmd      `cmd:"" aliases:"move" help:"Rename a branch and move its rows along."`
	Tree    TreeCmd    `cmd:"" help:"Show in, out and balance for every branch below the working branch."`
	Daily   DailyCmd   `cmd:"" help:"List the rows below the working branch with a running balance."`
	Monthly MonthlyCmd `cmd:"" help:"Summarize the rows below the working branch by month."`
	Insert  InsertCmd  `cmd:"" aliases:"in" help:"Record a row on the working branch."`
	Delete  DeleteCmd  `cmd:"" aliases:"del" help:"Delete rows recorded on the working branch."`
	Shell   ShellCmd   `cmd:"" help:"Start an interactive shell."`
	Serve   ServeCmd   `cmd:"" help:"Start the web API."`
}
