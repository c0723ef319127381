// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newListCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the scripts in the scripts directory",
		Long: `List the scripts in the scripts directory.

Scripts are discovered and compiled but not run. Files that fail to load are
reported and left out of the table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listScripts(cmd.Context(), app, flags)
		},
	}
}

func listScripts(ctx context.Context, app *App, flags *rootFlagValues) error {
	cfg, _, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	s, err := app.openSession(cfg, flags)
	if err != nil {
		return err
	}
	defer s.close(context.WithoutCancel(ctx))

	fmt.Fprintln(app.stdout, TitleStyle.Render("Scripts")+" "+SubtitleStyle.Render(s.registry.Dir()))
	if s.registry.ScriptCount() == 0 {
		fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("(no "+cfg.Extension+" scripts found)"))
		return nil
	}

	t := newTable("#", "SCRIPT", "ENABLED", "SIZE", "FINGERPRINT", "LAST WRITE")
	for i, m := range s.registry.Scripts() {
		enabled := "no"
		if m.Enabled() {
			enabled = "yes"
		}
		t.Row(
			strconv.Itoa(i),
			m.FileName(),
			enabled,
			formatSize(m.Stats().Size),
			m.Fingerprint().String(),
			m.FormattedLastWriteTime(),
		)
	}
	fmt.Fprintln(app.stdout, t.Render())
	return nil
}
