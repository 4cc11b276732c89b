// Package preflight provides readiness checks for the directories and
// external binaries Hermes depends on.
//
// The CLI runs RunAll before long operations (import, export, shell) and the
// "hermes config validate" command prints every result. A failed directory
// check aborts; a missing ffmpeg only limits which source tracks can be
// sliced.
package preflight
