// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns a Result; helper methods expose the
// first video/audio stream, container duration, sample rate and frame rate
// in the forms the clip decoder needs.
package ffprobe
