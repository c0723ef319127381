// SPDX-License-Identifier: MPL-2.0

// Package forgescript is the script module runtime.
//
// A Registry owns an ordered set of script modules discovered from a scripts
// directory and drives them once per rendering frame through RunScripts. Each
// tick runs in a fixed order: poll on-disk modification times (when reload on
// save is enabled), apply queued reloads, then execute every enabled module in
// insertion order. Reloads are therefore only ever applied between module
// executions, never while one is in flight.
//
// Each Module executes inside its own isolated environment provided by the
// Interpreter: global assignments stay private to the module, while reads fall
// back to the shared global namespace. A module that fails to compile or run is
// disabled by the registry; its siblings keep running.
//
// While a module executes it may register a settings or a teardown callback.
// Registration is only honoured while an execution context created by the
// registry is live; outside of it the request is rejected and reported.
//
// Registry and Module are not safe for concurrent use. They are meant to be
// driven from the single goroutine that renders frames.
package forgescript
