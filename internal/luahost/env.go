// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
)

// NewEnvironment allocates an isolated environment. Reads of names missing
// from the environment fall through to the shared globals; _G refers to the
// environment itself.
func (h *Host) NewEnvironment() (forgescript.EnvHandle, error) {
	if h.state == nil {
		return forgescript.NoEnv, ErrClosed
	}
	L := h.state

	env := L.NewTable()
	meta := L.NewTable()
	meta.RawSetString("__index", L.G.Global)
	L.SetMetatable(env, meta)
	env.RawSetString("_G", env)

	if n := len(h.free); n > 0 {
		handle := h.free[n-1]
		h.free = h.free[:n-1]
		h.envs[handle] = env
		return handle, nil
	}
	h.envs = append(h.envs, env)
	return forgescript.EnvHandle(len(h.envs) - 1), nil
}

// ReleaseEnvironment frees handle. Releasing NoEnv, an unknown handle or an
// already released one does nothing.
func (h *Host) ReleaseEnvironment(handle forgescript.EnvHandle) {
	if h.environment(handle) == nil {
		return
	}
	h.envs[handle] = nil
	h.free = append(h.free, handle)
}

// LiveEnvironments returns the number of allocated, unreleased environments.
func (h *Host) LiveEnvironments() int {
	live := 0
	for _, env := range h.envs {
		if env != nil {
			live++
		}
	}
	return live
}

// Lookup resolves name the way code running in handle would, including the
// fallback to shared globals. It returns lua.LNil for unknown handles.
func (h *Host) Lookup(handle forgescript.EnvHandle, name string) lua.LValue {
	env := h.environment(handle)
	if env == nil {
		return lua.LNil
	}
	return h.state.GetField(env, name)
}

func (h *Host) environment(handle forgescript.EnvHandle) *lua.LTable {
	if handle <= forgescript.NoEnv || int(handle) >= len(h.envs) {
		return nil
	}
	return h.envs[handle]
}
