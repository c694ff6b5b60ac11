// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/invowk/textcmd/internal/discovery"
	"github.com/invowk/textcmd/internal/issue"
	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/dispatch"
)

// RenderFailure creates a styled card for a failed Execute result. In
// verbose mode the matching issue guidance is appended.
func RenderFailure(res dispatch.Result, verbose bool) string {
	var sb strings.Builder

	switch res.Kind() {
	case command.KindUnknownCommand:
		writeUnknownCommand(&sb, res.Input)

	case command.KindPreconditionFailed:
		sb.WriteString(renderHeaderStyle.Render("✗ Command not allowed!"))
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "Every command matching %s was rejected.\n\n", renderCommandStyle.Render(fmt.Sprintf("%q", res.Input)))
		sb.WriteString(renderLabelStyle.Render("Reason: "))
		sb.WriteString(renderValueStyle.Render(res.Reason()))
		sb.WriteString("\n")
		sb.WriteString(renderHintStyle.Render("Pass --author or --channel if the command needs them."))

	case command.KindParseFailed:
		var perr *command.ParseError
		errors.As(res.Err(), &perr)
		sb.WriteString(renderHeaderStyle.Render("✗ Invalid arguments!"))
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "Command %s could not use its arguments.\n\n", renderCommandStyle.Render("'"+perr.Command+"'"))
		sb.WriteString(renderLabelStyle.Render("Failure: "))
		sb.WriteString(renderValueStyle.Render(string(res.ParseFailure())))
		sb.WriteString("\n")
		sb.WriteString(renderLabelStyle.Render("Reason:  "))
		sb.WriteString(renderValueStyle.Render(res.Reason()))
		sb.WriteString("\n")
		sb.WriteString(renderHintStyle.Render(fmt.Sprintf("Run 'textcmd describe %s' for usage.", perr.Command)))

	default:
		sb.WriteString(renderHeaderStyle.Render("✗ Command failed!"))
		sb.WriteString("\n\n")
		if res.Command != nil {
			fmt.Fprintf(&sb, "Command %s returned an error.\n\n", renderCommandStyle.Render("'"+res.Command.String()+"'"))
		}
		sb.WriteString(renderLabelStyle.Render("Error: "))
		sb.WriteString(renderValueStyle.Render(res.Reason()))
	}
	sb.WriteString("\n")

	if verbose {
		if guide := issue.ForError(res.Err()); guide != nil {
			if rendered, err := guide.Render("dark"); err == nil {
				sb.WriteString(rendered)
			}
		}
	}
	return sb.String()
}

func writeUnknownCommand(sb *strings.Builder, input string) {
	sb.WriteString(renderHeaderStyle.Render("✗ Unknown command!"))
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "No command alias starts %s.\n", renderCommandStyle.Render(fmt.Sprintf("%q", input)))
	sb.WriteString(renderHintStyle.Render("Run 'textcmd list' to see every registered command."))
}

// exitCode maps a failed result to the process exit code. Script failures
// keep their own exit status.
func exitCode(res dispatch.Result) int {
	var script issue.ScriptFailure
	switch res.Kind() {
	case "":
		return 0
	case command.KindUnknownCommand:
		return ExitUnknownCommand
	case command.KindPreconditionFailed:
		return ExitPrecondition
	case command.KindParseFailed:
		return ExitParseFailed
	default:
		if errors.As(res.Err(), &script) && script.ExitStatus() != 0 {
			return int(script.ExitStatus())
		}
		return ExitFailure
	}
}

func renderDiagnostics(w io.Writer, diags []discovery.Diagnostic, verbose bool) {
	for _, d := range diags {
		label := WarningStyle.Render(string(d.Severity) + ":")
		msg := d.Message
		if !verbose {
			var ae *issue.ActionableError
			if errors.As(d.Cause, &ae) && ae.Cause != nil {
				msg = ae.Cause.Error()
			}
		}
		fmt.Fprintf(w, "%s %s %s\n", label, VerboseStyle.Render(d.Path), msg)
	}
}
