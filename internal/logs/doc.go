// Package logs reads the hermes log file for `hermes logs`: the last N lines
// with an optional text filter, and follow mode that polls for appended lines
// until the context ends. A file that shrinks (rotated or truncated) is read
// again from the start.
package logs
