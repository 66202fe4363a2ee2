// Command carl is the entry point for the CARL webinar knowledge base.
// It provides a CLI interface (via Cobra) for ingesting Q&A entries and
// webinar transcripts, and an HTTP server that triages incoming questions
// against the knowledge base.
package main

import (
	"fmt"
	"os"

	"github.com/StevenCC12/carl-vector-knowledge-base/cmd/carl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
