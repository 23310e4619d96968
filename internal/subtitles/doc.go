// Package subtitles loads timestamped subtitle documents and extracts the
// text that falls inside a clip window.
package subtitles
