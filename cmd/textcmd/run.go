// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/invowk/textcmd/internal/watch"
)

func newRunCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input...>",
		Short: "Resolve and execute one input line",
		Long: `Resolve and execute one input line.

The arguments are joined with the configured separator to form the line.
Quote a whole line to keep argument quoting intact:

  textcmd run 'greet user "bob smith"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context(), flags, false)
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			renderDiagnostics(app.stderr, s.diags, s.verbose)

			code := s.execute(cmd.Context(), strings.Join(args, s.cfg.Dispatch.Separator), app.stderr)
			s.svc.Wait()
			if code != 0 {
				cmd.SilenceErrors = true
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	// Everything after the first argument belongs to the input line.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newReplCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		watchFlag bool
		debounce  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Execute input lines read from standard input",
		Long: `Execute input lines read from standard input until EOF.

A failing line is reported and the loop continues. With --watch (or
modules.watch in the configuration) descriptors that change on disk are
reloaded between lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.openSession(cmd.Context(), flags, true)
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			renderDiagnostics(app.stderr, s.diags, s.verbose)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if watchFlag || s.cfg.Modules.Watch {
				reloader := watch.NewReloader(s.loader, s.svc, s.services, s.files)
				go func() {
					if err := reloader.Watch(ctx, debounce); err != nil {
						s.logger.Error("descriptor watcher stopped", "err", err)
					}
				}()
			}

			err = s.repl(ctx, app.stdin, app.stdout, app.stderr)
			s.svc.Wait()
			return err
		},
	}
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "reload descriptors when they change")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a reload")
	return cmd
}

// repl executes every non-empty line of in. Failures are rendered and do
// not stop the loop.
func (s *session) repl(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func() { fmt.Fprint(out, promptStyle.Render("> ")) }
	for prompt(); scanner.Scan(); prompt() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.execute(ctx, line, errOut)
	}
	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// sessionFailed renders err and turns it into an exit code.
func sessionFailed(cmd *cobra.Command, app *App, err error, verbose bool) error {
	fmt.Fprintln(app.stderr, renderHeaderStyle.Render("✗ Could not load commands"))
	fmt.Fprintln(app.stderr, formatErrorForDisplay(err, verbose))
	cmd.SilenceErrors = true
	return &ExitError{Code: ExitFailure, Err: err}
}
