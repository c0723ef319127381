// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// BaseModTime is the modification time WriteScript stamps on new files.
var BaseModTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteScript writes src to dir/name, stamps it with BaseModTime and returns
// the path.
func WriteScript(t testing.TB, dir, name, src string) string {
	t.Helper()
	return WriteScriptAt(t, dir, name, src, BaseModTime)
}

// WriteScriptAt writes src to dir/name with modification time mtime and
// returns the path.
func WriteScriptAt(t testing.TB, dir, name, src string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	SetModTime(t, path, mtime)
	return path
}

// SetModTime changes the access and modification times of path.
func SetModTime(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// MustSetenv sets key to value for the duration of the test.
func MustSetenv(t testing.TB, key, value string) {
	t.Helper()
	original, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, original) // Test cleanup; error non-critical
			return
		}
		_ = os.Unsetenv(key) // Test cleanup; error non-critical
	})
}
