// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/textcmd/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	verbose    bool
	modules    []string
	author     string
	bot        bool
	channel    string
	noScripts  bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	root := &cobra.Command{
		Use:   "textcmd",
		Short: "Resolve and run text commands from module descriptors",
		Long: TitleStyle.Render("textcmd") + SubtitleStyle.Render(" - text command dispatcher") + `

textcmd loads command modules from *.textcmd.cue and *.textcmd.toml
descriptors and resolves plain input lines against them: the longest
matching alias wins, preconditions filter the candidates, arguments are
converted by type readers and the best-scoring command runs.

` + SubtitleStyle.Render("Examples:") + `
  textcmd list                         List every registered command
  textcmd run greet user bob           Resolve and run one line
  textcmd run --author 42:ana -- ban 7 Run as a specific author
  textcmd search greet                 Show how a line would resolve
  textcmd repl --watch                 Read lines, reloading descriptors on change
  textcmd config show                  Show the effective configuration`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is <config dir>/textcmd/config.cue)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringSliceVarP(&flags.modules, "modules", "m", nil, "descriptor glob patterns (replaces modules.paths)")
	pf.StringVar(&flags.author, "author", "", "invoke as this user, given as id or id:name")
	pf.BoolVar(&flags.bot, "bot", false, "mark the --author user as a bot")
	pf.StringVar(&flags.channel, "channel", "", "invoke from this channel, given as id or id:name")
	pf.BoolVar(&flags.noScripts, "no-scripts", false, "refuse to run descriptor scripts")

	root.AddCommand(
		newRunCommand(app, flags),
		newReplCommand(app, flags),
		newSearchCommand(app, flags),
		newListCommand(app, flags),
		newDescribeCommand(app, flags),
		newConfigCommand(app, flags),
		newExplainCommand(app),
	)
	return root
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, false))
		os.Exit(1)
	}
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError skips failures that were already rendered by the command.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// formatErrorForDisplay uses the actionable form of err when there is one.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
