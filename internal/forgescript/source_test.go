// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFingerprintOf(t *testing.T) {
	t.Parallel()

	a := FingerprintOf([]byte("x = 1"))
	if a != FingerprintOf([]byte("x = 1")) {
		t.Error("fingerprint is not deterministic")
	}
	if a == FingerprintOf([]byte("x = 2")) {
		t.Error("different content produced the same fingerprint")
	}
	// xxhash64 of the empty input.
	if got := FingerprintOf(nil).String(); got != "ef46db3751d8e999" {
		t.Errorf("FingerprintOf(nil) = %s, want ef46db3751d8e999", got)
	}
}

func TestLoadSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hud.lua")
	text := []byte("UiForge.Log(\"hi\")\n")
	if err := os.WriteFile(path, text, 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSource(path)
	if err != nil {
		t.Fatalf("LoadSource() error: %v", err)
	}

	want := Source{
		Path:        path,
		Text:        text,
		Fingerprint: FingerprintOf(text),
		Size:        int64(len(text)),
	}
	opts := []cmp.Option{
		cmpopts.IgnoreFields(Source{}, "ModTime", "ReadTime", "HashTime"),
	}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("LoadSource() mismatch (-want +got):\n%s", diff)
	}
	if !got.ModTime.Equal(mtime) {
		t.Errorf("ModTime = %v, want %v", got.ModTime, mtime)
	}
}

func TestLoadSource_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.lua")},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadSource(tt.path); err == nil {
				t.Errorf("LoadSource(%s) expected error", tt.name)
			}
		})
	}
}
