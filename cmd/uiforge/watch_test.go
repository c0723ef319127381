// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/mmvest/User-Interface-Forge/internal/testutil"
)

func openTestSession(t *testing.T, ta *testApp) *session {
	t.Helper()
	flags := &rootFlagValues{}
	cfg, _, err := ta.app.loadConfig(context.Background(), flags)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	cfg.ReloadOnSave.Debounce = 50 * time.Millisecond
	s, err := ta.app.openSession(cfg, flags)
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	t.Cleanup(func() { s.close(context.Background()) })
	return s
}

func TestApplyChanges_QueuesEditedScripts(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, map[string]string{"a.lua": tickScript, "b.lua": tickScript})
	s := openTestSession(t, ta)
	a := filepath.Join(s.registry.Dir(), "a.lua")

	s.applyChanges(context.Background(), changeBatch{paths: []string{a}})
	if got := s.registry.PendingReloads(); !slices.Equal(got, []string{a}) {
		t.Errorf("PendingReloads() = %v, want [%s]", got, a)
	}
}

func TestApplyChanges_SharedModuleReloadsAll(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, map[string]string{"a.lua": tickScript, "b.lua": tickScript})
	s := openTestSession(t, ta)

	s.applyChanges(context.Background(), changeBatch{paths: []string{"/modules/util.lua"}, modules: true})
	if got := len(s.registry.PendingReloads()); got != 2 {
		t.Errorf("%d reloads pending, want 2", got)
	}
}

func TestApplyChanges_PicksUpNewScripts(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, map[string]string{"a.lua": tickScript})
	s := openTestSession(t, ta)

	path := testutil.WriteScript(t, s.registry.Dir(), "new.lua", tickScript)
	s.applyChanges(context.Background(), changeBatch{paths: []string{path, filepath.Join(s.registry.Dir(), "gone.lua")}})

	if s.registry.ScriptCount() != 2 {
		t.Fatalf("ScriptCount() = %d, want 2", s.registry.ScriptCount())
	}
	if s.registry.GetScript("new.lua") == nil {
		t.Error("new.lua was not added")
	}
}

func TestApplyChanges_RevivesFixedScript(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, map[string]string{"a.lua": runtimeErrorScript})
	s := openTestSession(t, ta)

	if err := s.registry.RunScripts(context.Background()); err != nil {
		t.Fatalf("RunScripts: %v", err)
	}
	m := s.registry.GetScript("a.lua")
	if m.Enabled() {
		t.Fatal("a.lua should be disabled after failing")
	}

	// An edit that still does not compile keeps it disabled.
	testutil.WriteScriptAt(t, s.registry.Dir(), "a.lua", syntaxErrorScript, testutil.BaseModTime.Add(time.Second))
	s.applyChanges(context.Background(), changeBatch{paths: []string{m.Path()}})
	if m.Enabled() {
		t.Fatal("a.lua was enabled with a version that does not compile")
	}

	testutil.WriteScriptAt(t, s.registry.Dir(), "a.lua", tickScript, testutil.BaseModTime.Add(2*time.Second))
	s.applyChanges(context.Background(), changeBatch{paths: []string{m.Path()}})
	if !m.Enabled() {
		t.Fatal("a.lua was not enabled again after a fixing edit")
	}
	if m.Contents() != tickScript {
		t.Errorf("Contents() = %q, want the fixed version", m.Contents())
	}
}

func TestApplyChanges_KeepsUserDisabledScriptOff(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, map[string]string{"a.lua": tickScript})
	s := openTestSession(t, ta)

	if err := s.registry.RunScripts(context.Background()); err != nil {
		t.Fatalf("RunScripts: %v", err)
	}
	m := s.registry.GetScript("a.lua")
	m.Disable()

	edited := `UiForge.Log("edited")`
	testutil.WriteScriptAt(t, s.registry.Dir(), "a.lua", edited, testutil.BaseModTime.Add(time.Second))
	s.applyChanges(context.Background(), changeBatch{paths: []string{m.Path()}})
	if err := s.registry.RunScripts(context.Background()); err != nil {
		t.Fatalf("RunScripts: %v", err)
	}

	if m.Enabled() {
		t.Error("saving the file enabled a script the user switched off")
	}
	if m.Contents() != edited {
		t.Errorf("Contents() = %q, want the saved version", m.Contents())
	}
}

func TestStartWatchers_ForwardsScriptEdits(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, map[string]string{"a.lua": tickScript})
	s := openTestSession(t, ta)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	changes, err := s.startWatchers(ctx, &wg)
	if err != nil {
		t.Fatalf("startWatchers: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(s.registry.Dir(), "a.lua")
	if err := os.WriteFile(path, []byte(`UiForge.Log("edited")`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Files with other extensions are not forwarded.
	if err := os.WriteFile(filepath.Join(s.registry.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-changes:
			if batch.modules {
				t.Fatalf("unexpected shared module batch %v", batch.paths)
			}
			for _, p := range batch.paths {
				if filepath.Ext(p) != ".lua" {
					t.Errorf("non-script path forwarded: %s", p)
				}
			}
			if slices.Contains(batch.paths, path) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the change batch")
		}
	}
}
