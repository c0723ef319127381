// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mmvest/User-Interface-Forge/internal/config"
	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
	"github.com/mmvest/User-Interface-Forge/internal/issue"
	"github.com/mmvest/User-Interface-Forge/internal/luahost"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and goes through it for configuration and sessions.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		verbose    bool
		configPath string
		scriptsDir string
	}

	// session is one loaded runtime: the shared interpreter and the registry
	// over the scripts directory. It must be closed by the command that
	// opened it.
	session struct {
		cfg      *config.Config
		logger   *log.Logger
		host     *luahost.Host
		registry *forgescript.Registry
		notices  *noticePrinter
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig reads the configuration selected by the root flags and applies
// the flag overrides that every command shares.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	cfg, path, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, "", a.reportError(err, flags)
	}
	if flags.scriptsDir != "" {
		cfg.ScriptsDir = flags.scriptsDir
	}
	return cfg, path, nil
}

// newLogger returns the runtime logger. --verbose forces debug output and
// timestamps; otherwise the configured level applies.
func (a *App) newLogger(cfg *config.Config, verbose bool) *log.Logger {
	level := cfg.LogLevel.Level()
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix:          config.AppName,
		Level:           level,
		ReportTimestamp: verbose,
	})
}

// openSession creates the Lua host and the registry described by cfg. The
// script, module and resource directories are made absolute so that paths
// reported by the file watcher match registry keys.
func (a *App) openSession(cfg *config.Config, flags *rootFlagValues) (*session, error) {
	scriptsDir, err := filepath.Abs(cfg.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve scripts directory: %w", err)
	}
	if info, statErr := os.Stat(scriptsDir); statErr != nil || !info.IsDir() {
		if statErr == nil {
			statErr = errors.New("not a directory")
		}
		return nil, a.reportError(issue.NewErrorContext().
			WithOperation("open scripts directory").
			WithResource(scriptsDir).
			WithSuggestion("Create the directory and put your "+cfg.Extension+" scripts in it").
			WithSuggestion("Pass --scripts or set scripts_dir in the config file").
			WithIssue(issue.ScriptsDirNotFoundId).
			Wrap(statErr).
			BuildError(), flags)
	}

	logger := a.newLogger(cfg, flags.verbose)
	host := luahost.New(luahost.Options{
		ScriptsDir:   scriptsDir,
		ModulesDir:   absOrEmpty(cfg.ModulesDir),
		ResourcesDir: absOrEmpty(cfg.ResourcesDir),
		Logger:       logger.WithPrefix("lua"),
	})

	notices := newNoticePrinter(a.stderr, flags.verbose)
	registry, err := forgescript.NewRegistry(scriptsDir, host,
		forgescript.WithLogger(logger.WithPrefix("forgescript")),
		forgescript.WithNotifier(notices),
		forgescript.WithExtension(cfg.Extension),
		forgescript.WithEnabledOnLoad(cfg.EnableOnLoad),
		forgescript.WithExecBudget(cfg.ExecBudget),
		forgescript.WithReloadOnSave(cfg.ReloadOnSave.Enabled, cfg.ReloadOnSave.PollInterval),
	)
	if err != nil {
		host.Close()
		return nil, err
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		host:     host,
		registry: registry,
		notices:  notices,
	}, nil
}

// close runs the teardown callbacks of every enabled script and releases the
// interpreter.
func (s *session) close(ctx context.Context) {
	s.registry.Close(ctx)
	s.host.Close()
}

// reportError prints the detailed form of actionable errors in verbose mode;
// the short form is printed by fang from the returned error.
func (a *App) reportError(err error, flags *rootFlagValues) error {
	if flags.verbose {
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, true))
		}
	}
	return err
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

func absOrEmpty(dir string) string {
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
