// Package preflight provides readiness checks for the filesystem paths and
// external tools the dataset engine depends on.
//
// The CLI "tali deps" command runs RunAll and CheckSystemDeps and renders the
// results; a failed check explains what to fix before sampling.
package preflight
