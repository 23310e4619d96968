// Package failures defines the error taxonomy shared by the decoding,
// transform, and dataset layers.
//
// Components wrap low-level errors with one of the sentinel markers so the
// dataset retry loop can decide whether resampling another index is worth it,
// and so CLI summaries can report failures by kind without string matching.
package failures
