// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "uiforge",
		Short: "Hot-reloadable Lua scripts for in-process overlays",
		Long: TitleStyle.Render("uiforge") + SubtitleStyle.Render(" - Hot-reloadable Lua scripts for in-process overlays") + `

uiforge loads every script in the scripts directory into one shared Lua
interpreter, gives each script its own isolated globals, and runs them
once per frame. Scripts that fail are disabled; edits that do not compile
are rejected while the loaded version keeps running.

` + SubtitleStyle.Render("Examples:") + `
  uiforge run                   Drive the scripts at the configured frame rate
  uiforge run --watch           Reload scripts as soon as they are saved
  uiforge check                 Compile every script without running it
  uiforge list                  Show the discovered scripts
  uiforge config show           Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/uiforge/config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.scriptsDir, "scripts", "", "scripts directory (overrides scripts_dir)")

	rootCmd.AddCommand(newRunCommand(app, flags))
	rootCmd.AddCommand(newListCommand(app, flags))
	rootCmd.AddCommand(newCheckCommand(app, flags))
	rootCmd.AddCommand(newStatsCommand(app, flags))
	rootCmd.AddCommand(newSettingsCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newIssueCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
