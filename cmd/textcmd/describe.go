// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/invowk/textcmd/internal/config"
	"github.com/invowk/textcmd/pkg/command"
)

func newDescribeCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <alias...>",
		Short: "Show the help page of the commands with an alias",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.openSession(cmd.Context(), flags, false)
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			renderDiagnostics(app.stderr, s.diags, s.verbose)

			input := strings.Join(args, s.cfg.Dispatch.Separator)
			var exact, prefixed []*command.Command
			for _, m := range s.svc.Search(input).Matches {
				if m.Remaining == "" {
					exact = append(exact, m.Command)
				} else {
					prefixed = append(prefixed, m.Command)
				}
			}
			cmds := exact
			if len(cmds) == 0 {
				cmds = prefixed
			}
			if len(cmds) == 0 {
				var sb strings.Builder
				writeUnknownCommand(&sb, input)
				fmt.Fprintln(app.stderr, sb.String())
				cmd.SilenceErrors = true
				return &ExitError{Code: ExitUnknownCommand}
			}

			var md strings.Builder
			for i, c := range cmds {
				if i > 0 {
					md.WriteString("\n---\n\n")
				}
				md.WriteString(commandMarkdown(c))
			}
			out, err := glamour.Render(md.String(), glamourStyle(s.cfg.UI.Color))
			if err != nil {
				return fmt.Errorf("render help: %w", err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// commandMarkdown renders the help page of c.
func commandMarkdown(c *command.Command) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", usage(c))
	if c.Summary() != "" {
		fmt.Fprintf(&sb, "%s\n\n", c.Summary())
	}

	aliases := c.Aliases()
	for i, a := range aliases {
		aliases[i] = "`" + a + "`"
	}
	fmt.Fprintf(&sb, "**Aliases:** %s\n\n", strings.Join(aliases, ", "))
	fmt.Fprintf(&sb, "**Module:** %s · **Priority:** %d · **Run mode:** %s\n\n",
		c.Module().Root().Name(), c.Priority(), c.RunMode())

	if params := c.Parameters(); len(params) > 0 {
		sb.WriteString("## Parameters\n\n")
		sb.WriteString("| Name | Type | Notes |\n|---|---|---|\n")
		for _, p := range params {
			fmt.Fprintf(&sb, "| %s | `%s` | %s |\n", p.Name, p.Type, parameterNotes(p))
		}
		sb.WriteString("\n")
	}

	var preconds int
	for m := c.Module(); m != nil; m = m.Parent() {
		preconds += len(m.Preconditions())
	}
	preconds += len(c.Preconditions())
	if preconds > 0 {
		fmt.Fprintf(&sb, "_%d precondition(s) apply._\n", preconds)
	}
	return sb.String()
}

func parameterNotes(p command.Parameter) string {
	var notes []string
	if p.Summary != "" {
		notes = append(notes, p.Summary)
	}
	if p.Optional {
		if p.Default != nil {
			notes = append(notes, fmt.Sprintf("optional, default `%v`", p.Default))
		} else {
			notes = append(notes, "optional")
		}
	}
	if p.Remainder {
		notes = append(notes, "takes the rest of the line")
	}
	if p.Multiple {
		notes = append(notes, "repeatable")
	}
	return strings.Join(notes, "; ")
}

func glamourStyle(mode config.ColorMode) string {
	if mode == config.ColorNever {
		return "notty"
	}
	return "dark"
}
