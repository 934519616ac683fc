// Package main provides the sonido-mix CLI.
//
// Usage:
//
//	sonido-mix [flags] <command> [args]
//
// Commands:
//
//	analyze  - separate a mix into stems and analyse them
//	stems    - analyse stems you already have
//	serve    - run the HTTP upload service
//	history  - list and show stored reports
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-mix/cmd/sonido-mix/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
