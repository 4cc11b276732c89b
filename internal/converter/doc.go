// Package converter is the surface a shell (the CLI, or any other front end)
// drives. It owns the active project and wires the ELAN reader, alignment,
// audio extraction, export, saves, autosave and templates together.
//
// All methods are safe to call from one interactive goroutine while the
// autosaver runs in the background.
package converter
