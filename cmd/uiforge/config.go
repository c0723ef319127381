// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mmvest/User-Interface-Forge/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `uiforge config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage uiforge configuration",
		Long: `Manage uiforge configuration.

The configuration file is looked up in this order:
  1. the file given with --config
  2. the user configuration directory:
     - Linux: ~/.config/uiforge/config.cue
     - macOS: ~/Library/Application Support/uiforge/config.cue
     - Windows: %APPDATA%\uiforge\config.cue
  3. config.cue in the working directory

Without a file the built-in defaults apply.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, flags)
		},
	})

	var initDir string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(app, initDir)
		},
	}
	initCmd.Flags().StringVar(&initDir, "dir", "", "directory to write config.cue into (default is the user configuration directory)")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfigPath(app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, flags *rootFlagValues) error {
	cfg, path, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	line := func(indent, key string, value any) {
		fmt.Fprintf(app.stdout, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	if path != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)

	line("", "scripts_dir", cfg.ScriptsDir)
	line("", "modules_dir", cfg.ModulesDir)
	line("", "resources_dir", cfg.ResourcesDir)
	line("", "extension", cfg.Extension)
	line("", "enable_on_load", cfg.EnableOnLoad)
	line("", "frame_rate", cfg.FrameRate)
	line("", "exec_budget", cfg.ExecBudget)
	line("", "log_level", cfg.LogLevel)

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("reload_on_save"))
	line("  ", "enabled", cfg.ReloadOnSave.Enabled)
	line("  ", "poll_interval", cfg.ReloadOnSave.PollInterval)
	line("  ", "watch", cfg.ReloadOnSave.Watch)
	line("  ", "debounce", cfg.ReloadOnSave.Debounce)

	return nil
}

func initConfig(app *App, dir string) error {
	path, created, err := config.CreateDefaultConfig(dir)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Config file already exists: %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default config file: %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App, flags *rootFlagValues) error {
	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(app.stdout, path)
		return nil
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s %s\n",
		filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt),
		SubtitleStyle.Render("(not created, using defaults)"))
	return nil
}
