// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"

	"github.com/spf13/cobra"
)

func newSettingsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var frames int

	settingsCmd := &cobra.Command{
		Use:   "settings <script>",
		Short: "Invoke the settings callback of a script",
		Long: `Run a few frames so that scripts register their callbacks, then invoke the
settings callback of <script>, as the overlay does when its settings panel
is open. A settings callback that fails disables the script.

<script> is a path or, when unambiguous, a file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames <= 0 {
				return fmt.Errorf("--frames must be positive, got %d", frames)
			}
			return runSettings(cmd.Context(), app, flags, args[0], frames)
		},
	}
	settingsCmd.Flags().IntVar(&frames, "frames", 1, "number of frames to run before invoking the callback")

	return settingsCmd
}

func runSettings(ctx context.Context, app *App, flags *rootFlagValues, name string, frames int) error {
	cfg, _, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	s, err := app.openSession(cfg, flags)
	if err != nil {
		return err
	}
	defer s.close(context.WithoutCancel(ctx))

	if _, err := s.runFrames(ctx, frames); err != nil {
		return err
	}

	m := s.registry.GetScript(name)
	if m == nil {
		return fmt.Errorf("%w: %s", forgescript.ErrScriptNotFound, name)
	}
	if !m.Enabled() {
		fmt.Fprintf(app.stdout, "%s %s is disabled\n", WarningStyle.Render("!"), CmdStyle.Render(m.FileName()))
		return nil
	}
	if !m.HasCallback(forgescript.SlotSettings) {
		fmt.Fprintf(app.stdout, "%s %s has no settings callback\n", WarningStyle.Render("!"), CmdStyle.Render(m.FileName()))
		return nil
	}

	if err := m.RunSettingsCallback(ctx); err != nil {
		s.notices.Notify(forgescript.Notice{
			Level:   forgescript.NoticeError,
			Event:   forgescript.EventScriptFault,
			Path:    m.Path(),
			Message: "settings callback failed, script disabled",
			Err:     err,
		})
		m.DisableAfterFault(ctx)
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintf(app.stdout, "%s settings callback of %s ran\n", SuccessStyle.Render("✓"), CmdStyle.Render(m.FileName()))
	return nil
}
