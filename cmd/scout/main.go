// Command scout is the operator CLI: it serves the chat API, runs a triage
// conversation in the terminal, or smoke-tests the configured LLM provider.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
)

func main() {
	_ = godotenv.Load()

	interactive := func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	if err := newRootCmd(interactive).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
