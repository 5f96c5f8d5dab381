// Package main is the entry point for the querydesk CLI application.
// It provides an interactive and one-shot terminal client for a natural-language query backend.
package main

import (
	"querydesk/cli/cmd"
)

// main initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
