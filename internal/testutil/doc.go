// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the runtime tests: a
// controllable clock for poll scheduling, and helpers that write script files
// with explicit modification times so change detection is deterministic.
package testutil
