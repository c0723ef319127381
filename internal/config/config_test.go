// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mmvest/User-Interface-Forge/internal/issue"
	"github.com/mmvest/User-Interface-Forge/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// isolatedOptions points every lookup location at fresh empty directories.
func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		ConfigDirPath: t.TempDir(),
		BaseDir:       t.TempDir(),
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if valid, errs := cfg.IsValid(); !valid {
		t.Fatalf("default config is invalid: %v", errs)
	}
	if cfg.ScriptsDir != "uif_scripts" || cfg.Extension != ".lua" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.EnableOnLoad {
		t.Error("scripts should be enabled on load by default")
	}
	if cfg.ExecBudget != 250*time.Millisecond {
		t.Errorf("ExecBudget = %v, want 250ms", cfg.ExecBudget)
	}
	if cfg.FrameInterval() != time.Second/60 {
		t.Errorf("FrameInterval() = %v", cfg.FrameInterval())
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Load(context.Background(), isolatedOptions(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want none", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() without a file mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ConfigDirFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	want := writeConfig(t, opts.ConfigDirPath, `
scripts_dir: "/opt/uif/scripts"
frame_rate:  30
exec_budget: "1s"
log_level:   "debug"
reload_on_save: {
	enabled:       true
	poll_interval: "500ms"
}
`)

	cfg, path, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}

	expected := DefaultConfig()
	expected.ScriptsDir = "/opt/uif/scripts"
	expected.FrameRate = 30
	expected.ExecBudget = time.Second
	expected.LogLevel = LogLevelDebug
	expected.ReloadOnSave.Enabled = true
	expected.ReloadOnSave.PollInterval = 500 * time.Millisecond
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_LocalFileAfterConfigDir(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	local := writeConfig(t, opts.BaseDir, `extension: ".luau"`)

	cfg, path, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != local || cfg.Extension != ".luau" {
		t.Errorf("Load() = %q from %q, want .luau from %q", cfg.Extension, path, local)
	}

	// The config directory wins when both exist.
	writeConfig(t, opts.ConfigDirPath, `extension: ".lua5"`)
	cfg, _, err = NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Extension != ".lua5" {
		t.Errorf("Extension = %q, want the config directory value", cfg.Extension)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	writeConfig(t, opts.ConfigDirPath, `frame_rate: 10`)
	explicit := writeConfig(t, t.TempDir(), `frame_rate: 120`)
	opts.ConfigFilePath = explicit

	cfg, path, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != explicit || cfg.FrameRate != 120 {
		t.Errorf("Load() = %d from %q, want 120 from %q", cfg.FrameRate, path, explicit)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantIs  error
	}{
		{name: "syntax error", content: `frame_rate: `},
		{name: "unknown field", content: `frame_rat: 30`},
		{name: "bad duration", content: `exec_budget: "fast"`},
		{name: "bad log level", content: `log_level: "verbose"`},
		{name: "zero frame rate", content: `frame_rate: 0`},
		{name: "empty scripts dir", content: `scripts_dir: ""`},
		{name: "nested unknown field", content: `reload_on_save: {interval: "1s"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolatedOptions(t)
			writeConfig(t, opts.ConfigDirPath, tt.content)

			_, _, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error %T is not actionable", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "missing.cue")

	_, _, err := NewProvider().Load(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want config file not found", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewProvider().Load(ctx, isolatedOptions(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ModulesDir = "shared"
	cfg.ExecBudget = 0
	cfg.LogLevel = LogLevelWarn
	cfg.ReloadOnSave = ReloadOnSaveConfig{
		Enabled:      true,
		PollInterval: 2 * time.Second,
		Watch:        true,
		Debounce:     50 * time.Millisecond,
	}

	opts := isolatedOptions(t)
	writeConfig(t, opts.ConfigDirPath, GenerateCUE(cfg))

	got, _, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() of generated CUE error: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", AppName)
	path, written, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if !written || path != filepath.Join(dir, "config.cue") {
		t.Errorf("CreateDefaultConfig() = %q, %v", path, written)
	}

	if err := os.WriteFile(path, []byte(`frame_rate: 5`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, written, err = CreateDefaultConfig(dir)
	if err != nil || written {
		t.Errorf("second CreateDefaultConfig() = %v, %v; want existing file kept", written, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `frame_rate: 5` {
		t.Error("existing config was overwritten")
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	if p, err := ResolvePath(opts); err != nil || p != "" {
		t.Errorf("ResolvePath() = %q, %v; want none", p, err)
	}

	opts.ConfigFilePath = "/explicit/config.cue"
	if p, _ := ResolvePath(opts); p != "/explicit/config.cue" {
		t.Errorf("ResolvePath() = %q, want the explicit file", p)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux specific")
	}

	testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}
