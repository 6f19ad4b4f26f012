// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation. They
// cover the compile pipeline end to end:
//   - Modusfile parsing and kind checking
//   - resolution of a query with a free argument
//   - reduction of proofs into a build plan
//   - Dockerfile and plan document emission
//
// To generate a PGO profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
