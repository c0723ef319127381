// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type (
	// Registry owns the script modules of one scripts directory and drives
	// them once per frame. See the package documentation for the tick order.
	Registry struct {
		dir    string
		interp Interpreter
		opts   options
		logger *log.Logger

		modules   []*Module
		pending   map[string]struct{}
		// skipped maps files that failed to load during a scan to the
		// modification time they had, so a rescan reports them only once per
		// edit.
		skipped   map[string]time.Time
		reload    reloadOnSave
		executing *ExecContext
		stats     Stats
	}

	reloadOnSave struct {
		enabled  bool
		interval time.Duration
		lastPoll time.Time
	}
)

// NewRegistry creates a registry over dir and discovers its modules. Files
// that cannot be loaded are reported and skipped; only a directory that cannot
// be listed fails construction.
//
// Once discovery succeeds, the registry installs itself as the interpreter's
// Registrar.
func NewRegistry(dir string, interp Interpreter, opts ...Option) (*Registry, error) {
	if interp == nil {
		return nil, newScriptError(KindHost, "", "create registry", errors.New("interpreter is nil"))
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		dir:     dir,
		interp:  interp,
		opts:    o,
		logger:  o.logger,
		pending: make(map[string]struct{}),
		skipped: make(map[string]time.Time),
		reload: reloadOnSave{
			enabled:  o.reloadOnSave,
			interval: o.pollInterval,
		},
	}

	if !o.skipDiscovery {
		names, err := r.listScripts()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			r.scanScript(filepath.Join(dir, name))
		}
		r.logger.Debug("discovered scripts", "dir", dir, "count", len(r.modules))
	}

	interp.SetRegistrar(r.RegisterCallbackNamed)
	return r, nil
}

// scanScript adds a file found by a directory scan. A file that fails to
// load is reported and remembered; it is retried silently until its
// modification time changes. It reports whether a module was added.
func (r *Registry) scanScript(path string) bool {
	name := filepath.Base(path)
	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	if last, ok := r.skipped[path]; ok && last.Equal(modTime) {
		return false
	}

	if _, err := r.addScript(path); err != nil {
		r.skipped[path] = modTime
		se := newScriptError(KindDiscovery, path, "discover", err)
		r.logger.Warn("skipping script", "script", name, "err", err)
		r.opts.notifier.Notify(faultNotice(se, "could not load script "+name))
		return false
	}
	delete(r.skipped, path)
	return true
}

// listScripts returns the names of the regular files in the scripts directory
// that carry the configured extension, sorted.
func (r *Registry) listScripts() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read scripts directory %q: %w", r.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), r.opts.extension) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Dir returns the scripts directory.
func (r *Registry) Dir() string { return r.dir }

// AddScript loads the file at path and appends it to the registry. The file
// must be readable and compile; otherwise nothing is added and the failure is
// reported and returned.
func (r *Registry) AddScript(path string) error {
	m, err := r.addScript(path)
	if err != nil {
		r.logger.Error("failed to add script", "script", path, "err", err)
		r.opts.notifier.Notify(faultNotice(asScriptError(err, KindLoad, path, "add"), "could not add script "+filepath.Base(path)))
		return err
	}
	r.opts.notifier.Notify(Notice{
		Level:   NoticeInfo,
		Event:   EventScriptAdded,
		Path:    m.path,
		Message: "script added",
	})
	return nil
}

func (r *Registry) addScript(path string) (*Module, error) {
	key := filepath.Clean(path)
	if r.indexOf(key) >= 0 {
		return nil, newScriptError(KindLoad, key, "add", ErrDuplicateScript)
	}

	m, err := newModule(key, r.interp, moduleConfig{
		logger:   r.logger,
		notifier: r.opts.notifier,
		clock:    r.opts.clock,
		budget:   r.opts.execBudget,
		enabled:  r.opts.enableOnLoad,
	})
	if err != nil {
		return nil, err
	}
	r.modules = append(r.modules, m)
	r.logger.Debug("loaded script", "script", m.FileName(), "fingerprint", m.Fingerprint(), "size", m.stats.Size)
	return m, nil
}

// RemoveScript disables the module at path (running its teardown callback),
// releases its environment and drops it. It reports whether a module was
// removed.
func (r *Registry) RemoveScript(path string) bool {
	idx := r.lookup(path)
	if idx < 0 {
		return false
	}

	m := r.modules[idx]
	m.close(context.Background())
	delete(r.pending, m.path)
	r.modules = slices.Delete(r.modules, idx, idx+1)

	r.logger.Info("removed script", "script", m.FileName())
	r.opts.notifier.Notify(Notice{
		Level:   NoticeInfo,
		Event:   EventScriptRemoved,
		Path:    m.path,
		Message: "script removed",
	})
	return true
}

// GetScript returns the module registered under path. When no key matches
// exactly, a module whose file name equals path is returned if it is the only
// one. It returns nil when nothing matches.
func (r *Registry) GetScript(path string) *Module {
	if idx := r.lookup(path); idx >= 0 {
		return r.modules[idx]
	}
	return nil
}

// GetScriptAt returns the module at index in insertion order, or nil.
func (r *Registry) GetScriptAt(index int) *Module {
	if index < 0 || index >= len(r.modules) {
		return nil
	}
	return r.modules[index]
}

// ScriptCount returns the number of modules.
func (r *Registry) ScriptCount() int {
	return len(r.modules)
}

// Scripts returns the modules in insertion order. The slice is a copy.
func (r *Registry) Scripts() []*Module {
	return slices.Clone(r.modules)
}

// Executing returns the module currently running inside RunScripts, or nil.
func (r *Registry) Executing() *Module {
	return r.executing.Module()
}

// RefreshScripts scans the scripts directory again and adds files that are
// not tracked yet. It returns the number of modules added. Files that fail to
// load are reported and skipped; a file that keeps failing is reported again
// only after it changes.
func (r *Registry) RefreshScripts() (int, error) {
	names, err := r.listScripts()
	if err != nil {
		return 0, err
	}

	added := 0
	for _, name := range names {
		path := filepath.Clean(filepath.Join(r.dir, name))
		if r.indexOf(path) >= 0 {
			continue
		}
		if !r.scanScript(path) {
			continue
		}
		r.opts.notifier.Notify(Notice{
			Level:   NoticeInfo,
			Event:   EventScriptAdded,
			Path:    path,
			Message: "script added",
		})
		added++
	}
	return added, nil
}

// SetReloadOnSave turns mtime polling on or off. A non-positive interval polls
// on every tick.
func (r *Registry) SetReloadOnSave(enabled bool, interval time.Duration) {
	r.reload.enabled = enabled
	r.reload.interval = interval
	r.reload.lastPoll = time.Time{}
}

// ReloadOnSave reports the polling configuration.
func (r *Registry) ReloadOnSave() (enabled bool, interval time.Duration) {
	return r.reload.enabled, r.reload.interval
}

// RequestReload queues the module at path for reload at the next tick.
// Repeated requests before that tick collapse into one reload.
func (r *Registry) RequestReload(path string) error {
	idx := r.lookup(path)
	if idx < 0 {
		r.logger.Warn("reload requested for unknown script", "script", path)
		return fmt.Errorf("%w: %s", ErrScriptNotFound, path)
	}
	r.pending[r.modules[idx].path] = struct{}{}
	return nil
}

// RequestReloadAll queues every module for reload at the next tick.
func (r *Registry) RequestReloadAll() {
	for _, m := range r.modules {
		r.pending[m.path] = struct{}{}
	}
}

// PendingReloads returns the queued paths in module order.
func (r *Registry) PendingReloads() []string {
	paths := make([]string, 0, len(r.pending))
	for _, m := range r.modules {
		if _, ok := r.pending[m.path]; ok {
			paths = append(paths, m.path)
		}
	}
	return paths
}

// UpdateDebugStats recomputes the aggregate statistics from the current
// modules and returns them.
func (r *Registry) UpdateDebugStats() Stats {
	var total Stats
	for _, m := range r.modules {
		total.add(m.stats)
	}
	r.stats = total
	return total
}

// DebugStats returns the aggregate computed by the last UpdateDebugStats.
func (r *Registry) DebugStats() Stats {
	return r.stats
}

// Close disables every module, running teardown callbacks, releases their
// environments and detaches the registry from the interpreter. The
// interpreter itself stays open.
func (r *Registry) Close(ctx context.Context) {
	for _, m := range r.modules {
		m.close(ctx)
	}
	r.modules = nil
	clear(r.pending)
	r.executing = nil
	r.interp.SetRegistrar(nil)
}

func (r *Registry) indexOf(key string) int {
	return slices.IndexFunc(r.modules, func(m *Module) bool { return m.path == key })
}

func (r *Registry) lookup(path string) int {
	if idx := r.indexOf(filepath.Clean(path)); idx >= 0 {
		return idx
	}

	found := -1
	for i, m := range r.modules {
		if m.FileName() != path {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}

func asScriptError(err error, kind ErrorKind, path, op string) *ScriptError {
	var se *ScriptError
	if errors.As(err, &se) {
		return se
	}
	return newScriptError(kind, path, op, err)
}
