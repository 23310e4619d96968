// Package record defines the raw WIT/YouTube record model stored in the
// record store, and the parsing of media references it carries.
//
// Key types:
//   - Raw: one WIT record plus candidate clips and subtitle/description text
//   - WitFeatures: per-language parallel lists of the eight WIT text fields
//   - Candidate: a clip reference split into video id and start offset
//   - Resolver: bucket-prefix rewriting onto the local media root
package record
