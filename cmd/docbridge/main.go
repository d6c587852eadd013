// Package main provides the entry point for the docbridge CLI.
package main

import (
	"fmt"
	"os"

	"github.com/docbridge/docbridge/cmd/docbridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
