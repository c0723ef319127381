// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmvest/User-Interface-Forge/internal/config"
	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
	"github.com/mmvest/User-Interface-Forge/internal/issue"
	"github.com/mmvest/User-Interface-Forge/internal/luahost"

	"github.com/spf13/cobra"
)

func newCheckCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Compile scripts without running them",
		Long: `Compile scripts without running them and report syntax errors.

Without arguments every script in the scripts directory is checked. The
command exits with status 1 when any script fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkScripts(cmd.Context(), app, flags, args)
		},
	}
}

func checkScripts(ctx context.Context, app *App, flags *rootFlagValues, files []string) error {
	cfg, _, err := app.loadConfig(ctx, flags)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		files, err = scriptFiles(cfg)
		if err != nil {
			return app.reportError(err, flags)
		}
	}
	if len(files) == 0 {
		fmt.Fprintf(app.stdout, "%s\n", SubtitleStyle.Render("(no "+cfg.Extension+" scripts found)"))
		return nil
	}

	host := luahost.New(luahost.Options{Logger: app.newLogger(cfg, flags.verbose).WithPrefix("lua")})
	defer host.Close()

	failed := 0
	for _, path := range files {
		fp, checkErr := checkScript(host, path)
		if checkErr != nil {
			failed++
			fmt.Fprintf(app.stdout, "%s %s\n  %s\n", ErrorStyle.Render("✗"), CmdStyle.Render(path), VerboseStyle.Render(checkErr.Error()))
			continue
		}
		fmt.Fprintf(app.stdout, "%s %s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path), SubtitleStyle.Render(fp.String()))
	}

	if failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d of %d script(s) failed to compile", failed, len(files))}
	}
	return nil
}

func checkScript(host *luahost.Host, path string) (forgescript.Fingerprint, error) {
	src, err := forgescript.LoadSource(path)
	if err != nil {
		return 0, err
	}
	if _, err := host.Compile(filepath.Base(path), src.Text); err != nil {
		return 0, err
	}
	return src.Fingerprint, nil
}

// scriptFiles lists the scripts the registry would discover in the scripts
// directory.
func scriptFiles(cfg *config.Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.ScriptsDir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("list scripts").
			WithResource(cfg.ScriptsDir).
			WithSuggestion("Create the directory or pass --scripts").
			WithIssue(issue.ScriptsDirNotFoundId).
			Wrap(err).
			BuildError()
	}

	ext := cfg.Extension
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(cfg.ScriptsDir, entry.Name()))
		}
	}
	return files, nil
}
