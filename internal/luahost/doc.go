// SPDX-License-Identifier: MPL-2.0

// Package luahost embeds a gopher-lua interpreter and implements the
// forgescript.Interpreter contract on top of it.
//
// A single *lua.LState is shared by every script module. Isolation comes from
// environments: each one is a table whose metatable falls back to the shared
// globals for reads, and whose _G field points at the table itself, so
// assignments through plain globals or through _G stay private to the module.
// Environments live in an arena indexed by forgescript.EnvHandle and are only
// freed when explicitly released.
//
// The host also publishes the UiForge table that scripts use to talk back to
// the runtime (callback registration, logging and well-known paths), and
// extends package.path with the shared modules directory.
//
// A Host is not safe for concurrent use.
package luahost
