// Package dataset exposes TALI records as indexed training samples.
//
// A Dataset resolves an index to a stored record, runs the record transform
// and applies the family postprocessors. It is the single place where failed
// records are replaced: a failing index is retried with randomly drawn
// records up to a configured number of attempts. Infinite sampling reports a
// fixed large length and wraps indices around the store, and dummy-batch
// mode returns the first successful sample for every index.
package dataset
