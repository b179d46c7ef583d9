// Package testutil provides testing utilities for cocogo.
//
// This package is intended for use in tests only. It generates random but
// referentially consistent datasets for property-style tests.
//
// # Random Datasets
//
//	rng := testutil.NewRNG(seed)
//	ds := testutil.RandomDataset(t, rng, testutil.DatasetConfig{Images: 20, Categories: 4, Annotations: 50})
//
// # Fixtures
//
//	ds := testutil.Fixture(t)
package testutil
