// Package audio owns the source recording behind an ELAN transcript and the
// per-row clips cut from it.
//
// A Track is opened once per project and shared read-only by every Sample.
// A Sample is a [start, end) window in milliseconds that is extracted to a
// scratch WAV file the first time its path is requested; subsequent requests
// return the same file. PCM WAV sources are cut natively. Anything else is
// handed to ffmpeg.
package audio
