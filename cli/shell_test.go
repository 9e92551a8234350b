package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", []string{}},
		{"ls", []string{"ls"}},
		{"  mkdir   Food\tRent ", []string{"mkdir", "Food", "Rent"}},
		{`insert 5 "coffee and cake"`, []string{"insert", "5", "coffee and cake"}},
		{`mkdir 'Eating Out' Bills`, []string{"mkdir", "Eating Out", "Bills"}},
		{`mkdir Eating\ Out`, []string{"mkdir", "Eating Out"}},
		{`mkdir ""`, []string{"mkdir", ""}},
		{`insert 5 'it\s'`, []string{"insert", "5", `it\s`}},
		{`insert 5 "fish & chips"`, []string{"insert", "5", "fish & chips"}},
		{`mkdir 가계부`, []string{"mkdir", "가계부"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, line := range []string{
		`mkdir "Food`,
		`mkdir 'Food`,
		`mkdir Food\`,
		`insert 5 fish & chips`,
		`ls > out.txt`,
		`ls; mkdir Food`,
	} {
		t.Run(line, func(t *testing.T) {
			_, err := splitLine(line)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "cannot split line")
		})
	}
}

func TestShell(t *testing.T) {
	ts := newTestSession(t)
	ts.confirm = nil
	ts.Stdin = strings.NewReader(strings.Join([]string{
		"mkdir Food Rent",
		"cd Food",
		"insert -d 2024-01-10 500 refund",
		"",
		"frobnicate",
		"cd ..",
		"rd 2",
		"y",
		"ls",
		"exit",
		"ls",
	}, "\n") + "\n")

	assert.NoError(t, (&ShellCmd{}).Run(context.Background(), ts.Session))

	out := ts.stdout.String()
	assert.Contains(t, out, "$Finance_Tree[HOME]>> ")
	assert.Contains(t, out, "$Finance_Tree[HOME/Food]>> ")
	assert.Contains(t, out, "Recorded 500 on 2024-01-10 at HOME/Food")
	assert.Contains(t, out, "Delete HOME/Rent? (y/N) ")
	assert.Contains(t, out, "Deleted HOME/Rent (1 branches, 0 rows)")
	assert.Equal(t, 1, strings.Count(out, "1. Food"), "commands after exit must not run")
	assert.Contains(t, ts.stderr.String(), "frobnicate")
}

func TestShellQuitsOnEOF(t *testing.T) {
	ts := newTestSession(t)
	ts.Stdin = strings.NewReader("mkdir Food")

	assert.NoError(t, (&ShellCmd{}).Run(context.Background(), ts.Session))
	_, err := ts.Book.ResolvePath(ts.Cwd, "Food")
	assert.NoError(t, err)
}

func TestShellQuit(t *testing.T) {
	for _, quit := range []string{"q!", "Q!", "exit"} {
		t.Run(quit, func(t *testing.T) {
			ts := newTestSession(t)
			ts.Stdin = strings.NewReader(quit + "\nmkdir Food\n")
			assert.NoError(t, (&ShellCmd{}).Run(context.Background(), ts.Session))
			assert.Equal(t, "$Finance_Tree[HOME]>> ", ts.stdout.String())
		})
	}
}

func TestShellHelp(t *testing.T) {
	ts := newTestSession(t)
	ts.run(t, "help")
	out := ts.output()
	for _, want := range []string{"cd, chdir", "rmdir, rd", "mkdir, md", "insert, in", "q!, exit"} {
		assert.Contains(t, out, want)
	}
}

func TestShellKeepsGoingAfterErrors(t *testing.T) {
	ts := newTestSession(t)
	ts.Stdin = strings.NewReader("cd Nowhere\nmkdir \"Food\nmkdir Food\nq!\n")

	assert.NoError(t, (&ShellCmd{}).Run(context.Background(), ts.Session))
	errs := ts.stderr.String()
	assert.Contains(t, errs, `no such branch "Nowhere"`)
	assert.Contains(t, errs, "cannot split line")
	_, err := ts.Book.ResolvePath(ts.Cwd, "Food")
	assert.NoError(t, err)
}
