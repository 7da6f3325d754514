package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var red = color.New(color.FgRed).SprintFunc()

// printError writes a message to stderr, in red when it is a terminal.
func printError(msg string) {
	if isTerminal(os.Stderr.Fd()) {
		msg = red(msg)
	}
	os.Stderr.WriteString(msg + "\n")
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// isTerminalIO reports whether both stdin and stdout are terminals; the
// REPL only starts when they are.
func isTerminalIO() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}
