// Package loader assembles batches from a dataset with bounded concurrency.
package loader
