package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

// printWarning writes a warning line, in yellow on a terminal.
func printWarning(out io.Writer, message string) {
	if isTerminal(out) {
		warnColor.Fprintf(out, "Warning: %s\n", message)
		return
	}
	fmt.Fprintf(out, "Warning: %s\n", message)
}

// printSuccess writes a confirmation line, in green on a terminal.
func printSuccess(out io.Writer, format string, args ...any) {
	if isTerminal(out) {
		successColor.Fprintf(out, format+"\n", args...)
		return
	}
	fmt.Fprintf(out, format+"\n", args...)
}
