// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for uiforge.
//
// The commands share an App, the composition root that loads configuration
// and opens sessions: a Lua host plus the script registry over the scripts
// directory. "run" stands in for the render loop of the overlay and drives
// the registry once per frame; the other commands inspect or validate
// scripts without a display.
package cmd
