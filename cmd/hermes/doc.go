// Package main hosts the hermes CLI entrypoint and command graph.
//
// The Cobra command tree drives the converter: importing ELAN transcripts,
// editing rows, saving and reopening projects, exporting to the OPIE,
// dictionary and manifest layouts, and managing templates. The shell command
// keeps one project open with autosave running for interactive editing.
//
// Keep this package lean: behavior belongs in the internal packages, and
// commands here only parse flags, call the converter and render results.
package main
