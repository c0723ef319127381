// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"

	"github.com/spf13/cobra"
)

func newStatsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var frames int

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a few frames and print the script statistics",
		Long: `Run a few frames back to back and print the load and execution
statistics of every script, followed by the totals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if frames <= 0 {
				return fmt.Errorf("--frames must be positive, got %d", frames)
			}
			return showStats(cmd.Context(), app, flags, frames)
		},
	}
	statsCmd.Flags().IntVar(&frames, "frames", 1, "number of frames to run")

	return statsCmd
}

func showStats(ctx context.Context, app *App, flags *rootFlagValues, frames int) error {
	cfg, _, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	s, err := app.openSession(cfg, flags)
	if err != nil {
		return err
	}
	defer s.close(context.WithoutCancel(ctx))

	ran, err := s.runFrames(ctx, frames)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Script statistics")+" "+
		SubtitleStyle.Render(fmt.Sprintf("after %d frame(s)", ran)))

	t := newTable("SCRIPT", "ENABLED", "SIZE", "READ", "HASH", "AVG LOAD", "AVG EXEC", "RUNS")
	for _, m := range s.registry.Scripts() {
		enabled := "no"
		if m.Enabled() {
			enabled = "yes"
		}
		t.Row(statsRow(m.FileName(), enabled, m.Stats())...)
	}
	t.Row(statsRow("total", "", s.registry.UpdateDebugStats())...)
	fmt.Fprintln(app.stdout, t.Render())
	return nil
}

func statsRow(name, enabled string, st forgescript.Stats) []string {
	return []string{
		name,
		enabled,
		formatSize(st.Size),
		formatDuration(st.ReadTime),
		formatDuration(st.HashTime),
		formatDuration(st.AvgLoadTime()),
		formatDuration(st.AvgExecTime()),
		strconv.FormatUint(st.ExecCount, 10),
	}
}
