// SPDX-License-Identifier: MPL-2.0

package luahost

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
)

// APITableName is the shared global scripts use to reach the runtime.
const APITableName = "UiForge"

func (h *Host) openUiForge() {
	L := h.state

	api := L.NewTable()
	api.RawSetString("scripts_path", lua.LString(h.opts.ScriptsDir))
	api.RawSetString("modules_path", lua.LString(h.opts.ModulesDir))
	api.RawSetString("resources_path", lua.LString(h.opts.ResourcesDir))
	L.SetFuncs(api, map[string]lua.LGFunction{
		"RegisterCallback":       h.luaRegisterCallback,
		"RegisterScriptSettings": h.luaRegisterScriptSettings,
		"Log":                    h.luaLog,
	})

	L.SetGlobal(APITableName, api)
	h.api = api
}

// extendPackagePath lets require find modules directly in dir and one level
// below it.
func (h *Host) extendPackagePath(dir string) {
	L := h.state
	pkg, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}

	paths := []string{
		filepath.Join(dir, "?.lua"),
		filepath.Join(dir, "?", "?.lua"),
	}
	current := lua.LVAsString(L.GetField(pkg, "path"))
	if current != "" {
		paths = append([]string{current}, paths...)
	}
	L.SetField(pkg, "path", lua.LString(strings.Join(paths, ";")))
}

// UiForge.RegisterCallback(slot, fn) -> true | false, message
func (h *Host) luaRegisterCallback(L *lua.LState) int {
	slot := L.CheckString(1)
	fn := L.CheckFunction(2)
	return h.register(L, slot, fn)
}

// UiForge.RegisterScriptSettings(fn) -> true | false, message
func (h *Host) luaRegisterScriptSettings(L *lua.LState) int {
	fn := L.CheckFunction(1)
	return h.register(L, forgescript.SlotSettings.String(), fn)
}

func (h *Host) register(L *lua.LState, slot string, fn *lua.LFunction) int {
	if h.registrar == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("callback registration is unavailable"))
		return 2
	}

	cb := &callback{name: slot, fn: fn, host: h}
	if err := h.registrar(L.Context(), slot, cb); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// UiForge.Log(message [, level])
func (h *Host) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	level := L.OptString(2, "info")

	logger := h.logger
	if m := forgescript.ExecContextFrom(L.Context()).Module(); m != nil {
		logger = logger.With("script", m.FileName())
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.Log(lvl, msg)
	return 0
}
