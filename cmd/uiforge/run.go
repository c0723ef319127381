// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmvest/User-Interface-Forge/internal/config"

	"github.com/spf13/cobra"
)

// runFlagValues holds the flags of `uiforge run` and of the commands that
// reuse its frame loop.
type runFlagValues struct {
	frames       int
	fps          int
	reloadOnSave bool
	pollInterval time.Duration
	watch        bool
}

func newRunCommand(app *App, flags *rootFlagValues) *cobra.Command {
	rf := &runFlagValues{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scripts once per frame",
		Long: `Run the scripts once per frame, the way the overlay's render loop does.

Every frame polls for edited scripts (with reload on save), applies queued
reloads and then runs each enabled script. Scripts that fail are disabled.
Press Ctrl+C to stop; teardown callbacks run before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScripts(cmd, app, flags, rf)
		},
	}

	runCmd.Flags().IntVar(&rf.frames, "frames", 0, "stop after N frames (0 runs until interrupted)")
	runCmd.Flags().IntVar(&rf.fps, "fps", 0, "frames per second (overrides frame_rate)")
	runCmd.Flags().BoolVar(&rf.reloadOnSave, "reload-on-save", false, "poll script modification times (overrides reload_on_save.enabled)")
	runCmd.Flags().DurationVar(&rf.pollInterval, "poll-interval", 0, "minimum time between two polls (overrides reload_on_save.poll_interval)")
	runCmd.Flags().BoolVar(&rf.watch, "watch", false, "reload scripts on filesystem events (overrides reload_on_save.watch)")

	return runCmd
}

// apply copies the flags the user actually set over cfg.
func (rf *runFlagValues) apply(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("fps") {
		if rf.fps <= 0 {
			return fmt.Errorf("--fps must be positive, got %d", rf.fps)
		}
		cfg.FrameRate = rf.fps
	}
	if fs.Changed("reload-on-save") {
		cfg.ReloadOnSave.Enabled = rf.reloadOnSave
	}
	if fs.Changed("poll-interval") {
		cfg.ReloadOnSave.PollInterval = rf.pollInterval
	}
	if fs.Changed("watch") {
		cfg.ReloadOnSave.Watch = rf.watch
	}
	if rf.frames < 0 {
		return fmt.Errorf("--frames must not be negative, got %d", rf.frames)
	}
	return nil
}

func runScripts(cmd *cobra.Command, app *App, flags *rootFlagValues, rf *runFlagValues) error {
	ctx := cmd.Context()

	cfg, _, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	if err := rf.apply(cmd, cfg); err != nil {
		return err
	}

	s, err := app.openSession(cfg, flags)
	if err != nil {
		return err
	}
	// Teardown callbacks still run after Ctrl+C cancelled ctx.
	defer s.close(context.WithoutCancel(ctx))

	fmt.Fprintf(app.stdout, "%s Running %d script(s) from %s at %d fps\n",
		SuccessStyle.Render("→"), s.registry.ScriptCount(), s.registry.Dir(), cfg.FrameRate)

	var changes <-chan changeBatch
	if cfg.ReloadOnSave.Watch {
		watchCtx, stopWatching := context.WithCancel(ctx)
		var wg sync.WaitGroup
		defer func() {
			stopWatching()
			wg.Wait()
		}()

		changes, err = s.startWatchers(watchCtx, &wg)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s Watching %s for changes\n", SuccessStyle.Render("→"), s.registry.Dir())
	}

	frames, err := s.loop(ctx, rf.frames, cfg.FrameInterval(), changes)
	fmt.Fprintf(app.stdout, "%s Ran %d frame(s), %d fault(s) reported\n",
		SubtitleStyle.Render("→"), frames, s.notices.Faults())
	return err
}

// loop ticks the registry every interval until ctx is done or, when frames
// is positive, that many frames ran. Change batches from the watchers are
// applied between two frames. It returns the number of frames run.
func (s *session) loop(ctx context.Context, frames int, interval time.Duration, changes <-chan changeBatch) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ran := 0
	for {
		if ctx.Err() != nil {
			return ran, nil
		}
		if err := s.registry.RunScripts(ctx); err != nil {
			if ctx.Err() != nil {
				return ran, nil
			}
			return ran, err
		}
		ran++
		if frames > 0 && ran >= frames {
			return ran, nil
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				return ran, nil
			case batch := <-changes:
				s.applyChanges(ctx, batch)
			case <-ticker.C:
				break wait
			}
		}
	}
}

// runFrames runs n frames back to back, without pacing. It stops early when
// ctx is done.
func (s *session) runFrames(ctx context.Context, n int) (int, error) {
	for i := range n {
		if ctx.Err() != nil {
			return i, nil
		}
		if err := s.registry.RunScripts(ctx); err != nil {
			if ctx.Err() != nil {
				return i, nil
			}
			return i, err
		}
	}
	return n, nil
}
