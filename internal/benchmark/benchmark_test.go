// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmvest/User-Interface-Forge/internal/config"
	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
	"github.com/mmvest/User-Interface-Forge/internal/luahost"

	"github.com/charmbracelet/log"
)

const (
	// sampleScript is a representative overlay script: it keeps state across
	// frames, registers both callbacks and does a little string work.
	sampleScript = `
frames = (frames or 0) + 1
local parts = {}
for i = 1, 16 do
	parts[#parts + 1] = string.format("%d:%d", i, frames % i)
end
label = table.concat(parts, ",")

UiForge.RegisterScriptSettings(function()
	threshold = (threshold or 10) + 1
end)

UiForge.RegisterCallback("teardown", function()
	frames = 0
end)
`

	// sampleConfig is a config file touching every section.
	sampleConfig = `
scripts_dir:    "uif_scripts"
extension:      ".lua"
frame_rate:     144
exec_budget:    "100ms"
log_level:      "warn"
reload_on_save: {
	enabled:       true
	poll_interval: "500ms"
	watch:         true
	debounce:      "100ms"
}
`

	scriptCount = 20
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.ErrorLevel})
}

// writeScripts fills a temp directory with n copies of sampleScript.
func writeScripts(b *testing.B, n int) string {
	b.Helper()
	dir := b.TempDir()
	for i := range n {
		path := filepath.Join(dir, fmt.Sprintf("script_%02d.lua", i))
		if err := os.WriteFile(path, []byte(sampleScript), 0o644); err != nil {
			b.Fatalf("write script: %v", err)
		}
	}
	return dir
}

func newRegistry(b *testing.B, dir string, opts ...forgescript.Option) (*forgescript.Registry, *luahost.Host) {
	b.Helper()
	host := luahost.New(luahost.Options{ScriptsDir: dir, Logger: quietLogger()})
	opts = append([]forgescript.Option{forgescript.WithLogger(quietLogger())}, opts...)
	reg, err := forgescript.NewRegistry(dir, host, opts...)
	if err != nil {
		host.Close()
		b.Fatalf("NewRegistry: %v", err)
	}
	b.Cleanup(func() {
		reg.Close(context.Background())
		host.Close()
	})
	return reg, host
}

// BenchmarkFingerprint benchmarks content hashing at typical script sizes.
func BenchmarkFingerprint(b *testing.B) {
	for _, size := range []int{1 << 10, 16 << 10, 256 << 10} {
		data := []byte(strings.Repeat("x", size))
		b.Run(fmt.Sprintf("%dKiB", size>>10), func(b *testing.B) {
			b.SetBytes(int64(size))
			for b.Loop() {
				_ = forgescript.FingerprintOf(data)
			}
		})
	}
}

// BenchmarkLoadSource benchmarks reading and fingerprinting one script.
func BenchmarkLoadSource(b *testing.B) {
	path := filepath.Join(writeScripts(b, 1), "script_00.lua")

	b.ResetTimer()
	for b.Loop() {
		if _, err := forgescript.LoadSource(path); err != nil {
			b.Fatalf("LoadSource failed: %v", err)
		}
	}
}

// BenchmarkCompile benchmarks Lua compilation, which Run repeats every frame.
func BenchmarkCompile(b *testing.B) {
	host := luahost.New(luahost.Options{Logger: quietLogger()})
	b.Cleanup(host.Close)
	src := []byte(sampleScript)

	b.ResetTimer()
	for b.Loop() {
		if _, err := host.Compile("bench.lua", src); err != nil {
			b.Fatalf("Compile failed: %v", err)
		}
	}
}

// BenchmarkDiscovery benchmarks building a registry over a scripts directory.
func BenchmarkDiscovery(b *testing.B) {
	dir := writeScripts(b, scriptCount)
	host := luahost.New(luahost.Options{ScriptsDir: dir, Logger: quietLogger()})
	b.Cleanup(host.Close)

	b.ResetTimer()
	for b.Loop() {
		reg, err := forgescript.NewRegistry(dir, host, forgescript.WithLogger(quietLogger()))
		if err != nil {
			b.Fatalf("NewRegistry failed: %v", err)
		}
		if reg.ScriptCount() != scriptCount {
			b.Fatalf("discovered %d scripts, want %d", reg.ScriptCount(), scriptCount)
		}
		reg.Close(context.Background())
	}
}

// BenchmarkTick benchmarks one frame over scriptCount scripts.
func BenchmarkTick(b *testing.B) {
	ctx := context.Background()

	b.Run("plain", func(b *testing.B) {
		reg, _ := newRegistry(b, writeScripts(b, scriptCount))
		b.ResetTimer()
		for b.Loop() {
			if err := reg.RunScripts(ctx); err != nil {
				b.Fatalf("RunScripts failed: %v", err)
			}
		}
	})

	// Polling on every tick is the worst case of reload on save.
	b.Run("reload-on-save", func(b *testing.B) {
		reg, _ := newRegistry(b, writeScripts(b, scriptCount), forgescript.WithReloadOnSave(true, time.Nanosecond))
		b.ResetTimer()
		for b.Loop() {
			if err := reg.RunScripts(ctx); err != nil {
				b.Fatalf("RunScripts failed: %v", err)
			}
		}
	})
}

// BenchmarkReloadAll benchmarks a tick that reloads every script first, as
// happens after a shared module changes.
func BenchmarkReloadAll(b *testing.B) {
	ctx := context.Background()
	reg, _ := newRegistry(b, writeScripts(b, scriptCount))

	b.ResetTimer()
	for b.Loop() {
		reg.RequestReloadAll()
		if err := reg.RunScripts(ctx); err != nil {
			b.Fatalf("RunScripts failed: %v", err)
		}
	}
}

// BenchmarkConfigLoad benchmarks CUE validation and Viper decoding.
func BenchmarkConfigLoad(b *testing.B) {
	path := filepath.Join(b.TempDir(), "config.cue")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		b.Fatalf("write config: %v", err)
	}
	provider := config.NewProvider()
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		cfg, _, err := provider.Load(ctx, config.LoadOptions{ConfigFilePath: path})
		if err != nil {
			b.Fatalf("Load failed: %v", err)
		}
		if cfg.FrameRate != 144 {
			b.Fatalf("FrameRate = %d, want 144", cfg.FrameRate)
		}
	}
}
