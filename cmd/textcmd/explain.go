// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/textcmd/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [issue-id]",
		Short: "List known failure kinds or show the guidance for one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Known Issues"))
				for _, is := range issue.Values() {
					fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render(fmt.Sprintf("%2d", is.Id())), issueTitle(is))
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("issue id must be a number: %w", err)
			}
			is := issue.Get(issue.Id(n))
			if is == nil {
				return fmt.Errorf("no issue with id %d (run 'textcmd explain' for the list)", n)
			}
			out, err := is.Render("dark")
			if err != nil {
				return fmt.Errorf("render issue: %w", err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
}

// issueTitle is the first markdown heading of the issue text.
func issueTitle(is *issue.Issue) string {
	for line := range strings.SplitSeq(string(is.MarkdownMsg()), "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}
