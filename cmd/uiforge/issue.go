// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/mmvest/User-Interface-Forge/internal/issue"

	"github.com/spf13/cobra"
)

func newIssueCommand(app *App) *cobra.Command {
	var style string

	issueCmd := &cobra.Command{
		Use:   "issue [name]",
		Short: "Explain a problem and how to fix it",
		Long: `Render the guide for a known problem. Without a name, list the guides.

Error messages point at the matching guide with "More help: uiforge issue <name>".`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: issue.Names(),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Issue guides"))
				for _, name := range issue.Names() {
					fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render(name))
				}
				return nil
			}

			i := issue.Lookup(args[0])
			if i == nil {
				return fmt.Errorf("unknown issue %q, expected one of: %s", args[0], strings.Join(issue.Names(), ", "))
			}
			rendered, err := i.Render(style)
			if err != nil {
				return fmt.Errorf("render issue %s: %w", i.Name(), err)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&style, "style", issueStyle, "glamour style (dark, light, notty, ...)")

	return issueCmd
}
