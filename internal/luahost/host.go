// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
)

// The host errors wrap forgescript.ErrHost, so a registry treats them as a
// failure of the interpreter rather than of the script being run.
var (
	// ErrClosed is returned by every operation on a closed Host.
	ErrClosed = fmt.Errorf("lua host is closed: %w", forgescript.ErrHost)
	// ErrUnknownEnvironment is returned by Exec for a handle that was never
	// allocated or has been released.
	ErrUnknownEnvironment = fmt.Errorf("unknown environment handle: %w", forgescript.ErrHost)
	// ErrForeignHandle is returned when a Chunk or Callback was not produced
	// by this host.
	ErrForeignHandle = fmt.Errorf("handle does not belong to this host: %w", forgescript.ErrHost)
)

type (
	// Options configures a Host.
	Options struct {
		// ScriptsDir, ModulesDir and ResourcesDir are published to scripts as
		// UiForge.scripts_path, UiForge.modules_path and UiForge.resources_path.
		// A non-empty ModulesDir is also appended to package.path.
		ScriptsDir   string
		ModulesDir   string
		ResourcesDir string

		// Logger receives UiForge.Log output and host diagnostics. nil uses
		// a stderr logger prefixed "lua".
		Logger *log.Logger
	}

	// Host owns the shared interpreter state.
	Host struct {
		state     *lua.LState
		opts      Options
		logger    *log.Logger
		api       *lua.LTable
		registrar forgescript.Registrar

		// envs[0] is never used so that forgescript.NoEnv stays invalid.
		envs []*lua.LTable
		free []forgescript.EnvHandle
	}

	chunk struct {
		name string
		fn   *lua.LFunction
		host *Host
	}

	callback struct {
		name string
		fn   *lua.LFunction
		host *Host
	}
)

var (
	_ forgescript.Interpreter = (*Host)(nil)
	_ forgescript.Chunk       = (*chunk)(nil)
	_ forgescript.Callback    = (*callback)(nil)
)

// New creates a host with the standard Lua libraries and the UiForge table
// loaded.
func New(opts Options) *Host {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "lua"})
	}

	h := &Host{
		state:  lua.NewState(),
		opts:   opts,
		logger: logger,
		envs:   make([]*lua.LTable, 1),
	}
	h.openUiForge()
	if opts.ModulesDir != "" {
		h.extendPackagePath(opts.ModulesDir)
	}
	return h
}

// Close releases the interpreter state. Handles obtained from the host become
// invalid.
func (h *Host) Close() {
	if h.state == nil {
		return
	}
	h.state.Close()
	h.state = nil
	h.envs = nil
	h.free = nil
	h.registrar = nil
}

// State exposes the shared interpreter state so embedders can publish
// additional shared functionality.
func (h *Host) State() *lua.LState {
	return h.state
}

// SetGlobal publishes v in the shared namespace, visible to every module
// through its environment fallback.
func (h *Host) SetGlobal(name string, v lua.LValue) {
	if h.state == nil {
		return
	}
	h.state.SetGlobal(name, v)
}

// Compile parses src into a chunk named name without running it.
func (h *Host) Compile(name string, src []byte) (forgescript.Chunk, error) {
	if h.state == nil {
		return nil, ErrClosed
	}
	fn, err := h.state.Load(bytes.NewReader(src), name)
	if err != nil {
		return nil, err
	}
	return &chunk{name: name, fn: fn, host: h}, nil
}

// Exec binds c to the environment env and runs it under ctx. Cancelling ctx
// interrupts the script between two instructions.
func (h *Host) Exec(ctx context.Context, c forgescript.Chunk, env forgescript.EnvHandle) error {
	if h.state == nil {
		return ErrClosed
	}
	ch, ok := c.(*chunk)
	if !ok || ch.host != h {
		return ErrForeignHandle
	}
	tbl := h.environment(env)
	if tbl == nil {
		return fmt.Errorf("%w: %d", ErrUnknownEnvironment, env)
	}
	ch.fn.Env = tbl

	defer h.enter(ctx)()

	h.state.Push(ch.fn)
	return h.state.PCall(0, 0, nil)
}

// Call invokes cb with no arguments under ctx.
func (h *Host) Call(ctx context.Context, cb forgescript.Callback) error {
	if h.state == nil {
		return ErrClosed
	}
	c, ok := cb.(*callback)
	if !ok || c.host != h {
		return ErrForeignHandle
	}

	defer h.enter(ctx)()

	return h.state.CallByParam(lua.P{
		Fn:      c.fn,
		NRet:    0,
		Protect: true,
	})
}

// enter installs ctx on the state and returns the function restoring the
// previous one, so nested calls see their own context.
func (h *Host) enter(ctx context.Context) func() {
	L := h.state
	prev := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	L.SetContext(ctx)
	return func() {
		if prev != nil {
			L.SetContext(prev)
			return
		}
		L.RemoveContext()
	}
}

// SetRegistrar installs the receiver of UiForge.RegisterCallback calls.
func (h *Host) SetRegistrar(r forgescript.Registrar) {
	h.registrar = r
}

func (c *chunk) ChunkName() string       { return c.name }
func (c *callback) CallbackName() string { return c.name }
