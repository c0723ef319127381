// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
	"github.com/mmvest/User-Interface-Forge/internal/watch"
)

// sharedModuleExt is the extension require resolves shared modules with.
const sharedModuleExt = ".lua"

// changeBatch is one debounced set of filesystem changes. Modules is set
// when the batch comes from the shared modules directory.
type changeBatch struct {
	paths   []string
	modules bool
}

// startWatchers watches the scripts directory and, when it exists, the
// shared modules directory. Batches are delivered on the returned channel
// and must be applied on the goroutine that ticks the registry. Watchers
// stop when ctx is cancelled; wg tracks them.
func (s *session) startWatchers(ctx context.Context, wg *sync.WaitGroup) (<-chan changeBatch, error) {
	changes := make(chan changeBatch, 8)

	forward := func(modules bool) func(context.Context, []string) error {
		return func(ctx context.Context, changed []string) error {
			select {
			case changes <- changeBatch{paths: changed, modules: modules}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	scriptsWatcher, err := watch.New(watch.Config{
		Dir:      s.registry.Dir(),
		Patterns: []string{watch.ExtensionPattern(s.cfg.Extension)},
		Debounce: s.cfg.ReloadOnSave.Debounce,
		Logger:   s.logger.WithPrefix("watch"),
		OnChange: forward(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	s.runWatcher(ctx, wg, scriptsWatcher)

	modulesDir := absOrEmpty(s.cfg.ModulesDir)
	if info, statErr := os.Stat(modulesDir); modulesDir == "" || statErr != nil || !info.IsDir() {
		return changes, nil
	}
	modulesWatcher, err := watch.New(watch.Config{
		Dir:      modulesDir,
		Patterns: []string{"**/" + watch.ExtensionPattern(sharedModuleExt)},
		Debounce: s.cfg.ReloadOnSave.Debounce,
		Logger:   s.logger.WithPrefix("watch"),
		OnChange: forward(true),
	})
	if err != nil {
		s.logger.Warn("not watching shared modules", "dir", modulesDir, "err", err)
		return changes, nil
	}
	s.runWatcher(ctx, wg, modulesWatcher)

	return changes, nil
}

func (s *session) runWatcher(ctx context.Context, wg *sync.WaitGroup, w *watch.Watcher) {
	wg.Go(func() {
		if err := w.Run(ctx); err != nil {
			s.logger.Error("file watcher stopped", "dir", w.Dir(), "err", err)
		}
	})
}

// applyChanges turns a change batch into registry requests. Edited scripts
// are queued for the next tick; new files are picked up by a rescan. A script
// disabled by a failure is reloaded right away and enabled again when the new
// version compiles, which is how a fixed script comes back without a restart.
// A script the user switched off stays off. Any change to a shared module
// reloads every script.
func (s *session) applyChanges(ctx context.Context, batch changeBatch) {
	if batch.modules {
		s.logger.Info("shared module changed, reloading all scripts", "changed", len(batch.paths))
		s.registry.RequestReloadAll()
		return
	}

	rescan := false
	for _, path := range batch.paths {
		m := s.registry.GetScript(path)
		if m == nil {
			if _, err := os.Stat(path); err == nil {
				rescan = true
			}
			continue
		}
		if m.Faulted() {
			s.revive(ctx, m)
			continue
		}
		if err := s.registry.RequestReload(path); err != nil {
			s.logger.Warn("could not queue reload", "script", filepath.Base(path), "err", err)
		}
	}

	if !rescan {
		return
	}
	added, err := s.registry.RefreshScripts()
	if err != nil {
		s.logger.Error("rescan of scripts directory failed", "err", err)
		return
	}
	if added > 0 {
		s.logger.Info("picked up new scripts", "added", added)
	}
}

func (s *session) revive(ctx context.Context, m *forgescript.Module) {
	if err := m.Reload(ctx); err != nil {
		s.notices.Notify(forgescript.Notice{
			Level:   forgescript.NoticeError,
			Event:   forgescript.EventScriptFault,
			Path:    m.Path(),
			Message: "edit of " + m.FileName() + " could not be loaded, script stays disabled",
			Err:     err,
		})
		return
	}
	m.Enable()
	s.notices.Notify(forgescript.Notice{
		Level:   forgescript.NoticeInfo,
		Event:   forgescript.EventScriptReloaded,
		Path:    m.Path(),
		Message: "script reloaded and enabled again",
	})
}
