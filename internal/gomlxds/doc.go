// Package gomlxds feeds TALI batches into gomlx training loops.
package gomlxds
