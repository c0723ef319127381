// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// TimeLayout is the layout of the formatted timestamp accessors.
const TimeLayout = "2006-01-02 15:04:05"

type (
	// Module is one script file loaded into the shared interpreter.
	//
	// The module owns its isolated environment and its two callback slots. The
	// interpreter is shared and only referenced.
	Module struct {
		path     string
		interp   Interpreter
		logger   *log.Logger
		notifier Notifier
		clock    Clock
		budget   time.Duration

		src     Source
		enabled bool
		faulted bool
		env     EnvHandle

		settings Callback
		teardown Callback

		stats Stats

		// observedWriteTime is the mtime seen by the latest poll,
		// loadedWriteTime the mtime of the version actually loaded and
		// rejectedWriteTime the mtime of the last edit that failed to compile.
		observedWriteTime time.Time
		loadedWriteTime   time.Time
		rejectedWriteTime time.Time
		lastReloadTime    time.Time
	}

	moduleConfig struct {
		logger   *log.Logger
		notifier Notifier
		clock    Clock
		budget   time.Duration
		enabled  bool
	}
)

// newModule loads and validates the file at path. Nothing is created when the
// file cannot be read or does not compile.
func newModule(path string, interp Interpreter, cfg moduleConfig) (*Module, error) {
	src, err := LoadSource(path)
	if err != nil {
		return nil, newScriptError(KindLoad, path, "read", err)
	}
	if _, err := interp.Compile(filepath.Base(path), src.Text); err != nil {
		return nil, newScriptError(KindLoad, path, "compile", err)
	}

	m := &Module{
		path:     path,
		interp:   interp,
		logger:   cfg.logger.With("script", filepath.Base(path)),
		notifier: cfg.notifier,
		clock:    cfg.clock,
		budget:   cfg.budget,
		enabled:  cfg.enabled,
	}
	m.commit(src)
	return m, nil
}

// commit swaps in src and resets the statistics to describe it.
func (m *Module) commit(src Source) {
	m.src = src
	m.loadedWriteTime = src.ModTime
	m.rejectedWriteTime = time.Time{}
	m.stats = Stats{
		ReadTime: src.ReadTime,
		HashTime: src.HashTime,
		Size:     src.Size,
	}
}

// Run compiles and executes the module once. It does nothing while the module
// is disabled. Compile and runtime failures are returned as KindRuntime
// errors and leave the module enabled; disabling is the caller's decision.
// Failures of the interpreter itself are returned as KindHost.
func (m *Module) Run(ctx context.Context) error {
	if !m.enabled {
		return nil
	}

	start := time.Now()
	chunk, err := m.interp.Compile(m.FileName(), m.src.Text)
	if err != nil {
		return newScriptError(runtimeKind(err), m.path, "compile", err)
	}
	loadTime := time.Since(start)

	if err := m.ensureEnvironment(); err != nil {
		return err
	}

	runCtx, cancel := withBudget(ctx, m.budget)
	defer cancel()

	start = time.Now()
	err = m.interp.Exec(runCtx, chunk, m.env)
	execTime := time.Since(start)
	if err != nil {
		return newScriptError(runtimeKind(err), m.path, "execute", err)
	}

	m.stats.LoadTime += loadTime
	m.stats.ExecTime += execTime
	m.stats.ExecCount++
	return nil
}

// RunSettingsCallback invokes the registered settings callback. It does
// nothing while the module is disabled or when no callback is registered.
func (m *Module) RunSettingsCallback(ctx context.Context) error {
	if !m.enabled || m.settings == nil {
		return nil
	}

	callCtx, cancel := withBudget(ctx, m.budget)
	defer cancel()

	if err := m.interp.Call(callCtx, m.settings); err != nil {
		return newScriptError(KindCallback, m.path, "run settings callback", err)
	}
	return nil
}

// runtimeKind classifies an error from Compile or Exec.
func runtimeKind(err error) ErrorKind {
	if errors.Is(err, ErrHost) {
		return KindHost
	}
	return KindRuntime
}

// Enable marks the module runnable.
func (m *Module) Enable() {
	m.enabled = true
	m.faulted = false
}

// Disable marks the module not runnable and, on the enabled to disabled
// transition only, runs the teardown callback. Teardown failures are logged
// and reported, never returned.
func (m *Module) Disable() {
	m.faulted = false
	m.disable(context.Background())
}

// DisableAfterFault is Disable for a module that failed. Such a module is
// reported by Faulted until it is enabled or disabled again explicitly.
func (m *Module) DisableAfterFault(ctx context.Context) {
	if !m.enabled {
		return
	}
	m.faulted = true
	m.disable(ctx)
}

// Faulted reports whether the module was disabled because it failed rather
// than by a toggle.
func (m *Module) Faulted() bool { return m.faulted }

// SetEnabled is the toggle used by the overlay.
func (m *Module) SetEnabled(enabled bool) {
	if enabled {
		m.Enable()
		return
	}
	m.Disable()
}

func (m *Module) disable(ctx context.Context) {
	if !m.enabled {
		return
	}
	m.enabled = false

	if m.teardown == nil {
		return
	}

	callCtx, cancel := withBudget(ctx, m.budget)
	defer cancel()

	if err := m.interp.Call(callCtx, m.teardown); err != nil {
		se := newScriptError(KindCallback, m.path, "run teardown callback", err)
		m.logger.Error("teardown callback failed", "err", err)
		m.notifier.Notify(faultNotice(se, "teardown callback failed"))
	}
}

// Reload re-reads the file and swaps it in if it compiles.
//
// A candidate that fails to compile is rejected with a KindValidation error;
// the loaded version and its write time stay untouched, and the rejected
// write time is remembered so the same edit is not picked up again by the
// next poll. On success the
// module is disabled (running the old teardown callback), its callbacks are
// cleared, its environment is released, and only then the new source is
// committed. The enabled flag is restored afterwards.
func (m *Module) Reload(ctx context.Context) error {
	src, err := LoadSource(m.path)
	if err != nil {
		return newScriptError(KindLoad, m.path, "read", err)
	}

	if _, err := m.interp.Compile(m.FileName(), src.Text); err != nil {
		if errors.Is(err, ErrHost) {
			return newScriptError(KindHost, m.path, "validate", err)
		}
		m.rejectedWriteTime = src.ModTime
		m.observedWriteTime = src.ModTime
		return newScriptError(KindValidation, m.path, "validate", err)
	}

	wasEnabled := m.enabled
	m.disable(ctx)
	m.settings = nil
	m.teardown = nil
	m.releaseEnvironment()

	m.commit(src)
	m.observedWriteTime = src.ModTime
	m.lastReloadTime = m.clock.Now()

	if wasEnabled {
		m.Enable()
	}
	return nil
}

// IsOutOfDateOnDisk reports whether the file changed since it was loaded. The
// first call only records a baseline and reports false. Stat failures and an
// unchanged rejected edit report false.
func (m *Module) IsOutOfDateOnDisk() bool {
	info, err := os.Stat(m.path)
	if err != nil {
		m.logger.Debug("stat failed while polling", "err", err)
		return false
	}

	modTime := info.ModTime()
	if m.observedWriteTime.IsZero() {
		m.observedWriteTime = modTime
		return false
	}
	m.observedWriteTime = modTime
	if modTime.Equal(m.rejectedWriteTime) {
		return false
	}
	return !modTime.Equal(m.loadedWriteTime)
}

func (m *Module) ensureEnvironment() error {
	if m.env != NoEnv {
		return nil
	}
	h, err := m.interp.NewEnvironment()
	if err != nil {
		return newScriptError(KindHost, m.path, "create environment", err)
	}
	m.env = h
	return nil
}

func (m *Module) releaseEnvironment() {
	if m.env == NoEnv {
		return
	}
	m.interp.ReleaseEnvironment(m.env)
	m.env = NoEnv
}

func (m *Module) setCallback(slot Slot, cb Callback) {
	switch slot {
	case SlotSettings:
		m.settings = cb
	case SlotTeardown:
		m.teardown = cb
	}
}

// close disables the module and gives its environment back.
func (m *Module) close(ctx context.Context) {
	m.disable(ctx)
	m.settings = nil
	m.teardown = nil
	m.releaseEnvironment()
}

// Path is the registry key of the module.
func (m *Module) Path() string { return m.path }

// FileName is the base name of the module's file.
func (m *Module) FileName() string { return filepath.Base(m.path) }

// Contents returns the loaded source text.
func (m *Module) Contents() string { return string(m.src.Text) }

// Fingerprint returns the fingerprint of the loaded source text.
func (m *Module) Fingerprint() Fingerprint { return m.src.Fingerprint }

// Enabled reports whether Run executes anything.
func (m *Module) Enabled() bool { return m.enabled }

// Environment returns the module's environment handle, NoEnv before the first
// Run and after a reload.
func (m *Module) Environment() EnvHandle { return m.env }

// HasCallback reports whether slot holds a callback.
func (m *Module) HasCallback(slot Slot) bool {
	switch slot {
	case SlotSettings:
		return m.settings != nil
	case SlotTeardown:
		return m.teardown != nil
	default:
		return false
	}
}

// Stats returns a snapshot of the module's counters.
func (m *Module) Stats() Stats { return m.stats }

// LastWriteTime is the modification time of the loaded version.
func (m *Module) LastWriteTime() time.Time { return m.loadedWriteTime }

// LastObservedWriteTime is the modification time seen by the latest poll.
func (m *Module) LastObservedWriteTime() time.Time { return m.observedWriteTime }

// LastRejectedWriteTime is the modification time of the last edit that
// failed to compile, zero when the loaded version is the latest edit.
func (m *Module) LastRejectedWriteTime() time.Time { return m.rejectedWriteTime }

// LastReloadTime is when the module was last reloaded, zero if never.
func (m *Module) LastReloadTime() time.Time { return m.lastReloadTime }

// FormattedLastWriteTime renders LastWriteTime in local time.
func (m *Module) FormattedLastWriteTime() string {
	return formatTime(m.loadedWriteTime)
}

// FormattedLastReloadTime renders LastReloadTime in local time, or "never".
func (m *Module) FormattedLastReloadTime() string {
	return formatTime(m.lastReloadTime)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(TimeLayout)
}
