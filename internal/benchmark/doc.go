// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks over the textcmd hot paths, used for
// PGO profile generation:
//   - descriptor parsing and schema validation (CUE and TOML)
//   - descriptor discovery
//   - alias search over a large registry
//   - the full Execute pipeline, sequential and concurrent
//   - script bodies run by the embedded shell
//
// To generate a profile:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
