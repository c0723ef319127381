// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.DebugLevel})
}

// startWatcher runs w in the background and returns a stop function that
// cancels it and asserts a clean exit.
func startWatcher(t *testing.T, w *Watcher) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the event loop time to start.
	time.Sleep(50 * time.Millisecond)

	return func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after context cancellation")
		}
	}
}

// waitFor drains batches until one contains want.
func waitFor(t *testing.T, batches <-chan []string, want string) []string {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-batches:
			if slices.Contains(changed, want) {
				return changed
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
			return nil
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestExtensionPattern(t *testing.T) {
	t.Parallel()

	pattern := ExtensionPattern("lua")
	if pattern != "*.[lL][uU][aA]" {
		t.Fatalf("ExtensionPattern(lua) = %q", pattern)
	}
	if got := ExtensionPattern(".lua"); got != pattern {
		t.Errorf("ExtensionPattern(.lua) = %q, want %q", got, pattern)
	}

	tests := []struct {
		path  string
		match bool
	}{
		{"main.lua", true},
		{"MAIN.LUA", true},
		{"theme.Lua", true},
		{"main.luac", false},
		{"notes.txt", false},
		{"sub/main.lua", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, err := doublestar.Match(pattern, tt.path)
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if got != tt.match {
				t.Errorf("Match(%q, %q) = %v, want %v", pattern, tt.path, got, tt.match)
			}
		})
	}
}

// TestWatcherDebounce verifies that rapid writes collapse into one batch.
func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	batches := make(chan []string, 10)

	w, err := New(Config{
		Dir:      dir,
		Patterns: []string{ExtensionPattern("lua")},
		Debounce: 150 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, changed []string) error {
			batches <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	for _, name := range []string{"a.lua", "b.lua", "c.lua"} {
		writeFile(t, filepath.Join(dir, name), "x = 1")
		time.Sleep(10 * time.Millisecond)
	}

	changed := waitFor(t, batches, filepath.Join(w.Dir(), "c.lua"))
	for _, name := range []string{"a.lua", "b.lua"} {
		if !slices.Contains(changed, filepath.Join(w.Dir(), name)) {
			t.Errorf("batch %v is missing %s", changed, name)
		}
	}
	if !slices.IsSorted(changed) {
		t.Errorf("batch %v is not sorted", changed)
	}
}

// TestWatcherPatterns verifies that files outside the patterns never show up.
func TestWatcherPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	batches := make(chan []string, 10)

	w, err := New(Config{
		Dir:      dir,
		Patterns: []string{ExtensionPattern("lua")},
		Ignore:   []string{"**/skip_*"},
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, changed []string) error {
			batches <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")
	writeFile(t, filepath.Join(dir, "skip_me.lua"), "x = 1")
	time.Sleep(150 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "main.lua"), "x = 1")

	changed := waitFor(t, batches, filepath.Join(w.Dir(), "main.lua"))
	for _, path := range changed {
		switch filepath.Base(path) {
		case "notes.txt", "skip_me.lua":
			t.Errorf("filtered file %s appeared in batch %v", path, changed)
		}
	}
}

// TestWatcherNewSubdirectory verifies that directories created after Run
// starts are watched as well.
func TestWatcherNewSubdirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	batches := make(chan []string, 10)

	w, err := New(Config{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, changed []string) error {
			batches <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	sub := filepath.Join(dir, "widgets")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	waitFor(t, batches, filepath.Join(w.Dir(), "widgets"))

	writeFile(t, filepath.Join(sub, "button.lua"), "return {}")
	waitFor(t, batches, filepath.Join(w.Dir(), "widgets", "button.lua"))
}

// TestWatcherContextCancel verifies that Run returns cleanly on cancellation
// and refuses a second start.
func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dir: t.TempDir(), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)

	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Run() = %v, want ErrAlreadyStarted", err)
	}

	stop()
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: defaultIgnores}

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{".git/objects/ab/cd1234", true},
		{"main.lua.swp", true},
		{"main.lua.swo", true},
		{"backup~", true},
		{".#main.lua", true},
		{".DS_Store", true},
		{"sub/.DS_Store", true},
		{"main.lua", false},
		{"widgets/button.lua", false},
		{".gitignore", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := w.isIgnored(tt.path); got != tt.ignored {
				t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

// TestWatcherSkipIfBusy verifies that callbacks never overlap when one runs
// longer than the debounce period.
func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu         sync.Mutex
		calls      int
		inFlight   atomic.Int32
		overlapped atomic.Bool
	)
	firstCallDone := make(chan struct{})

	w, err := New(Config{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
		OnChange: func(_ context.Context, _ []string) error {
			if inFlight.Add(1) > 1 {
				overlapped.Store(true)
			}
			defer inFlight.Add(-1)

			mu.Lock()
			calls++
			callNum := calls
			mu.Unlock()

			if callNum == 1 {
				time.Sleep(300 * time.Millisecond)
				close(firstCallDone)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)

	writeFile(t, filepath.Join(dir, "first.lua"), "1")

	// Wait for the debounce to fire and the callback to start.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "second.lua"), "2")

	select {
	case <-firstCallDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}

	// Allow the deferred batch to be delivered.
	time.Sleep(300 * time.Millisecond)
	stop()

	if overlapped.Load() {
		t.Error("callbacks ran concurrently")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Errorf("expected the deferred batch to be delivered, got %d calls", calls)
	}
}

// TestWatcherInvalidPattern verifies that New fails fast on bad globs.
func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "watch pattern", cfg: Config{Patterns: []string{"[invalid"}}},
		{name: "ignore pattern", cfg: Config{Ignore: []string{"[invalid"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			cfg.Dir = t.TempDir()
			cfg.Logger = quietLogger()
			_, err := New(cfg)
			if !errors.Is(err, doublestar.ErrBadPattern) {
				t.Fatalf("New() error = %v, want ErrBadPattern", err)
			}
		})
	}
}

func TestWatcherMissingDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{
		Dir:    filepath.Join(t.TempDir(), "missing"),
		Logger: quietLogger(),
	})
	if err == nil {
		t.Fatal("New() on a missing directory should fail")
	}
}
