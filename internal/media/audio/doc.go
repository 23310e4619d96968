// Package audio converts decoded clip audio to the fixed-length, fixed-rate
// waveform used by the model.
//
// Resample truncates the source to the span needed for the requested sample
// count, band-limits and resamples it with a Hann-windowed sinc kernel, and
// zero-pads to the exact output length.
package audio
