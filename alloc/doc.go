// Package alloc partitions indivisible units across numbered buckets.
//
// # Reading Guide
//
//   - weights.go: shape models (uniform, pareto, zipf) producing normalized weight vectors
//   - allocator.go: integer allocation with a per-bucket floor and exact-sum correction
//   - distributor.go: the two-level application (servers receive pods, pods receive files)
//   - stats.go: descriptive statistics over a finished assignment
//   - rng.go: per-subsystem deterministic random sources
//
// Nothing in this package performs I/O. Every random draw comes from a
// *rand.Rand passed in by the caller, so a fixed seed reproduces a run
// bit-for-bit.
//
// Access grants for simulated identities live in the sub-package alloc/access.
package alloc
