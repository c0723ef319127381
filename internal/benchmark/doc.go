// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of the script runtime:
//   - source loading and fingerprinting
//   - Lua compilation
//   - script discovery
//   - the per-frame tick, with and without reload on save polling
//   - configuration loading
//
// To generate a PGO profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
