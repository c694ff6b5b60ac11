// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/dispatch"
)

func newSearchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <input...>",
		Short: "Show how an input line would resolve, without running it",
		Long: `Show how an input line would resolve, without running it.

Every command whose alias prefixes the line is listed with the outcome of
its precondition check and argument parse, and the score Execute would
rank it by.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context(), flags, false)
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			renderDiagnostics(app.stderr, s.diags, s.verbose)

			input := strings.Join(args, s.cfg.Dispatch.Separator)
			found := s.svc.Search(input)
			if len(found.Matches) == 0 {
				var sb strings.Builder
				writeUnknownCommand(&sb, input)
				fmt.Fprintln(app.stderr, sb.String())
				cmd.SilenceErrors = true
				return &ExitError{Code: ExitUnknownCommand}
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render(fmt.Sprintf("Candidates for %q", input)))
			fmt.Fprintln(app.stdout)
			for _, m := range found.Matches {
				pre := s.svc.CheckPreconditions(cmd.Context(), s.ictx, m, s.services)
				var parsed *dispatch.ParseResult
				if pre.Success() {
					p := s.svc.Parse(cmd.Context(), s.ictx, m, s.services)
					parsed = &p
				}
				writeCandidate(app.stdout, m, pre, parsed)
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newListCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.openSession(cmd.Context(), flags, false)
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			renderDiagnostics(app.stderr, s.diags, s.verbose)

			fmt.Fprintln(app.stdout, TitleStyle.Render("Available Commands"))
			for _, m := range s.svc.Modules() {
				fmt.Fprintln(app.stdout)
				header := m.Name()
				if m.Key() != "" {
					header += " " + SubtitleStyle.Render("("+m.Key()+")")
				}
				fmt.Fprintln(app.stdout, header)
				for _, c := range m.AllCommands() {
					fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render(usage(c)), SubtitleStyle.Render(c.Summary()))
				}
			}
			if len(s.svc.Modules()) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no modules found)"))
			}
			return nil
		},
	}
}

func writeCandidate(w io.Writer, m dispatch.Match, pre dispatch.PreconditionResult, parsed *dispatch.ParseResult) {
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render(m.Alias), SubtitleStyle.Render(fmt.Sprintf("priority %d", m.Command.Priority())))
	if m.Remaining != "" {
		fmt.Fprintf(w, "  %s %q\n", renderLabelStyle.Render("arguments:"), m.Remaining)
	}
	switch {
	case !pre.Success():
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("rejected:"), pre.Err)
	case !parsed.Success():
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("unparsed:"), parsed.Err)
	default:
		fmt.Fprintf(w, "  %s %.4f\n", SuccessStyle.Render("score:"), dispatch.Score(*parsed))
		for i, p := range m.Command.Parameters() {
			if i < len(parsed.Args) {
				fmt.Fprintf(w, "    %s = %v\n", p.Name, parsed.Args[i])
			}
		}
	}
}

// usage renders the primary alias followed by its parameter placeholders.
func usage(c *command.Command) string {
	var sb strings.Builder
	sb.WriteString(c.String())
	for _, p := range c.Parameters() {
		name := p.Name
		switch {
		case p.Multiple:
			name += "..."
		case p.Remainder:
			name += "*"
		}
		if p.Optional {
			fmt.Fprintf(&sb, " [%s]", name)
		} else {
			fmt.Fprintf(&sb, " <%s>", name)
		}
	}
	return sb.String()
}
