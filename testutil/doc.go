// Package testutil provides testing utilities for gridgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic, thread-safe random source for generating
// cell values and helpers for producing reproducible grids of test data.
//
// # Random Value Generation
//
//	rng := testutil.NewRNG(seed)
//	v := rng.Float64()       // uniform [0, 1)
//	n := rng.Intn(100)       // uniform [0, 100)
//	s := rng.Label("row")    // "row-<n>"
//
// # Grid Generation
//
//	grid := testutil.GenerateGrid(rng, rows, cols)
package testutil
